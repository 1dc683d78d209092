package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/partsline/partsline/internal/models"
)

// ErrOpaqueToken is returned by Inspect when a token carries no readable claims
var ErrOpaqueToken = errors.New("token has no readable claims")

// Identity is what the token says about its holder. It is never verified here.
type Identity struct {
	UserID    string
	Email     string
	Role      models.Role
	ExpiresAt *time.Time
}

type identityClaims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Inspect reads the claims of a JWT-shaped token for display. The signature and
// expiry are not checked.
func Inspect(token string) (*Identity, error) {
	claims := &identityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	id := &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		id.ExpiresAt = &exp
	}
	return id, nil
}
