package random

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10}$`)

func TestReferralCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := ReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 200)
}

func TestUniqueReferralCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	code, err := UniqueReferralCode(context.Background(), func(_ context.Context, _ string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, code, ReferralCodeLength)
}

func TestUniqueReferralCodeGivesUp(t *testing.T) {
	_, err := UniqueReferralCode(context.Background(), func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestUniqueReferralCodePropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := UniqueReferralCode(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = UniqueReferralCode(ctx, func(context.Context, string) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
