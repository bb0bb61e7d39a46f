package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackCapturedOnlyForInternalErrors(t *testing.T) {
	dbErr := NewDatabaseError("insert user", stderrors.New("conn reset"))
	assert.NotEmpty(t, dbErr.Stack)

	assert.Empty(t, NewWalletNotFoundError("0xA").Stack)
	assert.Empty(t, NewStakeLockedError(1, 30).Stack)
	assert.Empty(t, NewValidationError("amount", "must be positive").Stack)
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	base := NewConflictError("referral_code", "taken")
	wrapped := fmt.Errorf("register: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeConflict, appErr.Code)
	assert.True(t, appErr.IsConflict())
	assert.True(t, HasCode(wrapped, ErrCodeConflict))

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("deadlock detected")
	err := NewTransactionError("stake settlement", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "stake settlement", err.Details["operation"])
}
