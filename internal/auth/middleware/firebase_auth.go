package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	authctx "github.com/hecopilot/copilot-backend/internal/auth"
	"github.com/hecopilot/copilot-backend/internal/logging"
)

// TokenVerifier is the part of *auth.Client the middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware validates Firebase ID tokens and stores the uid and
// email claim on the gin context. A nil verifier means auth is not configured.
func FirebaseAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			apperr.Respond(c, apperr.MissingSetting("FIREBASE_CREDENTIALS_PATH"))
			return
		}

		token := extractToken(c)
		if token == "" {
			apperr.Respond(c, apperr.Unauthorized("missing authorization token"))
			return
		}

		decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			logging.New(c.Request.Context()).LogWarnf("auth", "token rejected: %v", err)
			apperr.Respond(c, apperr.Unauthorized("invalid token"))
			return
		}

		c.Set(authctx.CtxFirebaseUID, decoded.UID)
		if email, ok := decoded.Claims["email"].(string); ok {
			c.Set(authctx.CtxEmail, email)
		}

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
