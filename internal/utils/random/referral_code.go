package random

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// ReferralCodeLength is the length of every generated referral code.
const ReferralCodeLength = 10

// MaxCodeAttempts bounds the collision loop.
const MaxCodeAttempts = 32

var ErrCodeSpaceExhausted = errors.New("could not find a free referral code")

// ReferralCode returns a random URL-safe code of ReferralCodeLength characters.
func ReferralCode() (string, error) {
	// 8 bytes encode to 11 base64 chars, enough for 10
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:ReferralCodeLength], nil
}

// ExistsFunc reports whether a code is already assigned.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// UniqueReferralCode draws codes until exists reports a free one.
func UniqueReferralCode(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < MaxCodeAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := ReferralCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
