package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrInvalidTransition, "assessment is not in DRAFT")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "assessment is not in DRAFT", err.Error())
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", Clone(ErrConfiguration, "gap at 59.5"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrConfiguration.Code, appErr.Code)
	assert.Equal(t, "gap at 59.5", appErr.Message)
}
