package middleware

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
)

// FirebaseCallerSource maps a verified Firebase ID token to a local user
type FirebaseCallerSource interface {
	CallerFromFirebaseToken(ctx context.Context, idToken string) (*models.AuthenticatedCaller, error)
}

// FirebaseResolver accepts Firebase ID tokens instead of local JWTs
func FirebaseResolver(src FirebaseCallerSource) CallerResolver {
	return src.CallerFromFirebaseToken
}
