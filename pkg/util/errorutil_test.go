package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotOwner("offer-1"))

	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, CodeNotOwner, de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	assert.Equal(t, "offer-1", de.Details["offer_id"])
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")

	de := ToDomainError(cause)
	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestConfigurationMissingNamesSettings(t *testing.T) {
	err := NewConfigurationMissing([]string{"GEMINI_API_KEY", "MANTIS_API_TOKEN"})

	assert.True(t, HasCode(err, CodeConfigurationMissing))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY, MANTIS_API_TOKEN")
}

func TestUnknownOfferIsGone(t *testing.T) {
	de := ToDomainError(NewUnknownOffer("abc"))
	assert.Equal(t, http.StatusGone, de.HTTPStatus)
	assert.False(t, HasCode(de, CodeNotOwner))
}
