package domain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotice(t *testing.T) {
	env := Notice("Aucun candidat pour Plantnet")

	assert.Equal(t, http.StatusAccepted, env.Status)
	assert.Equal(t, "Aucun candidat pour Plantnet", env.Text)
	assert.Contains(t, env.HTML, "Aucun candidat pour Plantnet")
	assert.Zero(t, env.PostCount)
}

func TestNewTransientError(t *testing.T) {
	err := NewTransientError(http.StatusServiceUnavailable, "Pl@ntNet returned status 503")

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.False(t, err.MustBeReported)
	assert.Contains(t, err.HTML, "503")
}

func TestNewInternalError(t *testing.T) {
	err := NewInternalError("reply dispatch: connection reset")

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, err.MustBeReported)
	assert.Equal(t, "500: reply dispatch: connection reset", err.Error())
}

func TestNewNoticeError(t *testing.T) {
	err := NewNoticeError("La mention n'a pas de post parent")

	assert.Equal(t, http.StatusAccepted, err.Status)
	assert.False(t, err.MustBeReported)
}

func TestAsDomainError_Passthrough(t *testing.T) {
	original := NewTransientError(http.StatusNotFound, "not found")
	coerced := AsDomainError(original)
	require.Same(t, original, coerced)
}

func TestAsDomainError_WrapsBareErrors(t *testing.T) {
	coerced := AsDomainError(errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, coerced.Status)
	assert.True(t, coerced.MustBeReported)
	assert.Equal(t, "boom", coerced.Message)
}

func TestGateErrors(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, ErrTooManyRequests.Status)
	assert.False(t, ErrTooManyRequests.MustBeReported)
	assert.Equal(t, http.StatusServiceUnavailable, ErrServiceUnavailable.Status)
	assert.False(t, ErrServiceUnavailable.MustBeReported)
}
