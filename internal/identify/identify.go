// Package identify wraps the external identification services and
// normalizes their raw responses into a single tagged outcome shared by
// every provider.
package identify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maelig/identibot/internal/domain"
)

// Kind tags an identification outcome.
type Kind int

const (
	// OK: a result entry cleared the provider's minimal score.
	OK Kind = iota
	// BadScore: the provider answered but no entry cleared the threshold.
	BadScore
	// None: the provider found no species at all (plant only).
	None
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case BadScore:
		return "bad_score"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Illustration is a reference image attached to a positive identification.
type Illustration struct {
	URL     string
	Caption string
}

// Identification is the normalized outcome of one provider call.
type Identification struct {
	Kind         Kind
	ScoredResult string
	Illustration *Illustration
}

// Simulation case names accepted by every provider.
const (
	CaseGoodScoreImages  = "GoodScoreImages"
	CaseGoodScoreNoImage = "GoodScoreNoImage"
	CaseBadScore         = "BadScore"
)

// Request carries one identification call. When DoSimulate is set the
// provider must not touch the network and must answer from the named case.
type Request struct {
	ImageURL     string
	DoSimulate   bool
	SimulateCase string
}

// Provider is an identification service for one domain.
type Provider interface {
	Name() string
	MinScore() float64
	Identify(ctx context.Context, req Request) (Identification, error)
}

// FormatScore renders a [0,1] score as a percentage with two decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score*100)
}

// firstAbove returns the index of the first score strictly above min,
// preserving provider order, or -1 when none qualifies.
func firstAbove(scores []float64, min float64) int {
	for i, s := range scores {
		if s > min {
			return i
		}
	}
	return -1
}

// transientStatus reports whether an upstream status is an expected
// unavailability rather than a fault worth an audit entry.
func transientStatus(status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusRequestTimeout, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// upstreamError maps a provider HTTP status to the error taxonomy:
// transient statuses keep their code and stay unreported, anything else
// becomes a reportable 500.
func upstreamError(provider string, status int, body string) *domain.DomainError {
	msg := fmt.Sprintf("%s returned status %d", provider, status)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	if transientStatus(status) {
		return domain.NewTransientError(status, msg)
	}
	return domain.NewInternalError(msg)
}
