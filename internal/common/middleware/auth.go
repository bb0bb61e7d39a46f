package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"referral-staking-backend/internal/common/errors"
)

const (
	// AdminSubjectKey holds the subject of a verified admin token.
	AdminSubjectKey = "admin_subject"

	AdminRole = "admin"
)

// AdminClaims are the claims of an operator bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs an HS256 admin token. Used by tooling and tests.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseAdminToken(secret, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireAdmin проверяет Bearer JWT с ролью admin
func RequireAdmin(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("bearer token required"), logger)
			c.Abort()
			return
		}

		claims, err := parseAdminToken(secret, strings.TrimSpace(raw))
		if err != nil {
			sendErrorResponse(c, errors.NewUnauthorizedError("invalid token"), logger)
			c.Abort()
			return
		}

		if claims.Role != AdminRole {
			sendErrorResponse(c, errors.NewForbiddenError("admin role required"), logger)
			c.Abort()
			return
		}

		c.Set(AdminSubjectKey, claims.Subject)
		c.Next()
	}
}
