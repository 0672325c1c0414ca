package service

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidPlatform    = errors.New("unsupported platform")
	ErrCreatorNotFound    = errors.New("creator not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrNotOwner           = errors.New("video belongs to another creator")
	ErrVideoNotApproved   = errors.New("video is not approved")
	ErrAlreadyPaid        = errors.New("already paid")
	ErrAlreadyModerated   = errors.New("video already moderated")
	ErrAmountBelowMinimum = errors.New("amount below minimum")
	ErrCreatorBanned      = errors.New("creator is banned")
	ErrFundsOnBalance     = errors.New("earnings already credited to balance")
	ErrCooldownActive     = errors.New("cool-down has not elapsed")
	ErrNotRetryable       = errors.New("payout is not retryable")
	ErrTierTransition     = errors.New("tier transition not allowed")
	ErrKeyNotRevocable    = errors.New("key is not assigned")
)
