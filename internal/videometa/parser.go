package videometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RejectReason says why a submitted link cannot be monetized.
type RejectReason string

const (
	ReasonWrongAuthor RejectReason = "wrong_author"
	ReasonTooOld      RejectReason = "too_old"
	ReasonParseError  RejectReason = "parse_error"
)

// RejectedError is a definitive verdict from the parser: the link itself is
// not acceptable, as opposed to the parser being unreachable.
type RejectedError struct {
	Reason RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("video rejected: %s", e.Reason)
}

// ErrUnavailable means the parser could not be reached or answered garbage;
// the submission may be retried later.
var ErrUnavailable = errors.New("video parser unavailable")

// Engagement is the metric snapshot taken at submission time. Earnings are
// computed from this snapshot, never from live numbers.
type Engagement struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Views    int64  `json:"views"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
	Shares   int64  `json:"shares"`
}

// Parser resolves a video URL into its engagement snapshot.
type Parser interface {
	Fetch(ctx context.Context, platform, videoURL string) (*Engagement, error)
}

// HTTPParser talks to the scraping sidecar.
type HTTPParser struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPParser(baseURL string) *HTTPParser {
	return &HTTPParser{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type parseResponse struct {
	OK         bool         `json:"ok"`
	Engagement *Engagement  `json:"engagement"`
	Reason     RejectReason `json:"reason"`
}

// Fetch asks the sidecar for the engagement snapshot of one video.
func (p *HTTPParser) Fetch(ctx context.Context, platform, videoURL string) (*Engagement, error) {
	endpoint := fmt.Sprintf("%s/parse?platform=%s&url=%s",
		p.baseURL, url.QueryEscape(platform), url.QueryEscape(videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var out parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !out.OK {
		reason := out.Reason
		if reason == "" {
			reason = ReasonParseError
		}
		return nil, &RejectedError{Reason: reason}
	}
	if out.Engagement == nil {
		return nil, fmt.Errorf("%w: empty engagement", ErrUnavailable)
	}
	return out.Engagement, nil
}
