package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/platform/httputil"
	"blueprints/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID         string
	Name           string
	CharacterIDs   []int64
	CorporationIDs []int64
}

// RequireAuth validates the bearer token and stores the principal in the context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			principal, err := principalFromClaims(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, principal)))
		})
	}
}

func principalFromClaims(c *JWTClaims) (requestcontext.Principal, error) {
	userID, err := id.ParseUserID(c.UserID)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	p := requestcontext.Principal{
		UserID:         userID,
		Name:           c.Name,
		CharacterIDs:   make([]id.CharacterID, 0, len(c.CharacterIDs)),
		CorporationIDs: make([]id.CorporationID, 0, len(c.CorporationIDs)),
	}
	for _, cid := range c.CharacterIDs {
		p.CharacterIDs = append(p.CharacterIDs, id.CharacterID(cid))
	}
	for _, corp := range c.CorporationIDs {
		p.CorporationIDs = append(p.CorporationIDs, id.CorporationID(corp))
	}
	return p, nil
}
