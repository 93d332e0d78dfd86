package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
)

// Token verification errors. Verify returns ErrMalformedToken for anything
// that is not a three-part compact token and ErrInvalidSignature when the
// HMAC does not match.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims is the signed identity carried in a bearer token: who the caller is,
// their role, and their tenant scope hints. It is built at login and never
// persisted server-side.
//
// Tokens carry no expiry. Session lifetime is an open product question;
// adding an exp claim here without deciding it would silently log out every
// partner mid-upload.
type Claims struct {
	Role     string     `json:"role"`
	Name     string     `json:"name,omitempty"`
	Email    string     `json:"email,omitempty"`
	LabelID  *uuid.UUID `json:"labelId,omitempty"`
	ArtistID *uuid.UUID `json:"artistId,omitempty"`

	CanManageReleases  bool `json:"canManageReleases,omitempty"`
	CanManageNetwork   bool `json:"canManageNetwork,omitempty"`
	CanCreateSubLabels bool `json:"canCreateSubLabels,omitempty"`

	jwt.RegisteredClaims
}

// UserID returns the subject claim as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IsStaff reports whether the claims carry a staff role.
func (c *Claims) IsStaff() bool {
	return models.IsStaffRole(c.Role)
}

// ClaimsForUser builds the claim set issued at login for a user.
func ClaimsForUser(user *models.User) *Claims {
	return &Claims{
		Role:               user.Role,
		Name:               user.Name,
		Email:              user.Email,
		LabelID:            user.LabelID,
		ArtistID:           user.ArtistID,
		CanManageReleases:  user.CanManageReleases,
		CanManageNetwork:   user.CanManageNetwork,
		CanCreateSubLabels: user.CanCreateSubLabels,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.UserID.String(),
			Issuer:   "meridian",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
}

// TokenService signs and verifies compact tokens (header.payload.signature,
// base64url, HMAC-SHA256) with a shared server-held secret. It is a pure
// function over its inputs: no storage, no clock-based validation.
type TokenService struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenService creates a token service. The secret must be at least
// 32 bytes for HMAC-SHA256.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes")
	}

	return &TokenService{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			// Expiry is a claim field for callers to interpret, not a
			// verification failure.
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs the claims and returns the compact token.
func (s *TokenService) Issue(claims *Claims) (string, error) {
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the token's structure and signature and returns the decoded
// claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %s", ErrMalformedToken, err)
		}
	}

	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	return claims, nil
}
