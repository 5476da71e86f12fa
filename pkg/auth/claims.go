package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// AccessTokenClaims is the payload this service accepts. Tokens are minted
// by the accounts service; checkout only verifies them.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"uid"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
