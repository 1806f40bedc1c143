package katoerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidationError_WrapsBothSentinelAndConcreteType(t *testing.T) {
	err := NewValidationError("recall_threshold", "must be in [0,1]")

	assert.True(t, errors.Is(err, ErrInvalidObservation))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "recall_threshold", ve.Field)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(NewValidationError("f", "m")))
	assert.False(t, IsValidationError(errors.New("plain error")))
	assert.False(t, IsValidationError(ErrPatternNotFound))
}
