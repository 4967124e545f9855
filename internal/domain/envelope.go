package domain

import (
	"fmt"
	"html"
	"net/http"
)

// Envelope is the uniform success result produced by every plugin run.
// PostCount signals whether a reply was actually emitted; the gate uses it
// to invalidate the summary cache.
type Envelope struct {
	Text      string
	HTML      string
	Status    int
	PostCount int
}

// Notice builds an informational envelope (status 202) from a plain
// sentence, used when a run ends without emitting a post.
func Notice(text string) Envelope {
	return Envelope{
		Text:   text,
		HTML:   fmt.Sprintf(`<p class="notice">%s</p>`, html.EscapeString(text)),
		Status: http.StatusAccepted,
	}
}

// DomainError is the uniform failure shape carried by every plugin and gate
// rejection. Status is an HTTP-equivalent code, MustBeReported marks
// failures worth an audit entry, and Text/HTML are the news-feed renderings.
type DomainError struct {
	Status         int
	Message        string
	MustBeReported bool
	Text           string
	HTML           string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NewNoticeError builds an expected-negative rejection (status 202): not a
// system fault, never audited, but still rendered into the news feed.
func NewNoticeError(text string) *DomainError {
	return &DomainError{
		Status:  http.StatusAccepted,
		Message: text,
		Text:    text,
		HTML:    fmt.Sprintf(`<p class="notice">%s</p>`, html.EscapeString(text)),
	}
}

// NewTransientError builds a rejection for an expected upstream failure
// (404/408/503), preserving the original status.
func NewTransientError(status int, message string) *DomainError {
	return &DomainError{
		Status:  status,
		Message: message,
		Text:    message,
		HTML:    fmt.Sprintf(`<p class="warning">%s</p>`, html.EscapeString(message)),
	}
}

// NewInternalError wraps an unexpected failure as a reportable 500.
func NewInternalError(message string) *DomainError {
	return &DomainError{
		Status:         http.StatusInternalServerError,
		Message:        message,
		MustBeReported: true,
		Text:           message,
		HTML:           fmt.Sprintf(`<p class="error">%s</p>`, html.EscapeString(message)),
	}
}

// AsDomainError coerces any error into a *DomainError. Errors that already
// carry the envelope shape pass through unchanged; bare errors become
// reportable internal errors.
func AsDomainError(err error) *DomainError {
	if derr, ok := err.(*DomainError); ok {
		return derr
	}
	return NewInternalError(err.Error())
}

// Gate rejections: caller misuse, not system faults. They bypass the audit
// log and carry fixed user-facing messages.
var (
	ErrTooManyRequests = &DomainError{
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests, please retry later",
		Text:    "Too many requests, please retry later",
		HTML:    `<p class="warning">Too many requests, please retry later</p>`,
	}
	ErrServiceUnavailable = &DomainError{
		Status:  http.StatusServiceUnavailable,
		Message: "Plugin unavailable",
		Text:    "Plugin unavailable",
		HTML:    `<p class="warning">Plugin unavailable</p>`,
	}
)
