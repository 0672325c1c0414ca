package cryptopay

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FailureKind is the closed classification of rail failures. Everything the
// rail can say maps onto one of these; callers decide per kind whether the
// payout is retryable.
type FailureKind string

const (
	FailPermissionDisabled    FailureKind = "permission_disabled"
	FailRecipientUnregistered FailureKind = "recipient_unregistered"
	FailInsufficientFunds     FailureKind = "insufficient_funds"
	FailUnsupportedField      FailureKind = "unsupported_field"
	FailUnknown               FailureKind = "unknown"
)

// APIError is an error reported by the Crypto Pay API.
type APIError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crypto pay: %d %s", e.Code, e.Name)
}

// Classify maps a Transfer error onto the closed failure set. A timeout is an
// unknown outcome, not a failure: the transfer may have gone through and must
// be reconciled against the rail, never resubmitted under a new spend ID.
func Classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailUnknown
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return FailUnknown
	}

	name := strings.ToUpper(apiErr.Name)
	switch {
	case apiErr.Code == 403 || strings.Contains(name, "METHOD_DISABLED"):
		return FailPermissionDisabled
	case strings.Contains(name, "USER_NOT_FOUND") || strings.Contains(name, "USER_ID_INVALID"):
		return FailRecipientUnregistered
	case strings.Contains(name, "INSUFFICIENT_FUNDS") || strings.Contains(name, "NOT_ENOUGH"):
		return FailInsufficientFunds
	case strings.Contains(name, "CANNOT_ATTACH_COMMENT") || strings.Contains(name, "FIELD"):
		return FailUnsupportedField
	default:
		return FailUnknown
	}
}

// Retryable reports whether a failure of this kind leaves the payout safe to
// retry with the same spend ID after the underlying condition is fixed.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailPermissionDisabled, FailInsufficientFunds, FailUnknown:
		return true
	default:
		return false
	}
}
