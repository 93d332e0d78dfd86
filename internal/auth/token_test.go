package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret-key-minimum-32-bytes")

func testUser() *models.User {
	labelID := uuid.Must(uuid.NewV7())
	return &models.User{
		UserID:             uuid.Must(uuid.NewV7()),
		Email:              "admin@label.example",
		Name:               "Label Admin",
		Role:               models.RoleLabelAdmin,
		LabelID:            &labelID,
		CanCreateSubLabels: true,
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	user := testUser()
	token, err := svc.Issue(ClaimsForUser(user))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(token, "."), "compact token has three parts")

	claims, err := svc.Verify(token)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.UserID, userID)
	require.Equal(t, models.RoleLabelAdmin, claims.Role)
	require.Equal(t, user.Email, claims.Email)
	require.NotNil(t, claims.LabelID)
	require.Equal(t, *user.LabelID, *claims.LabelID)
	require.True(t, claims.CanCreateSubLabels)
	require.False(t, claims.IsStaff())
}

func TestTokenService_SecretTooShort(t *testing.T) {
	_, err := NewTokenService([]byte("short"))
	require.Error(t, err)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	token, err := svc.Issue(ClaimsForUser(testUser()))
	require.NoError(t, err)

	// Flip the last character of the signature part.
	last := token[len(token)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := token[:len(token)-1] + string(flipped)

	_, err = svc.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenService_TamperedPayload(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	token, err := svc.Issue(ClaimsForUser(testUser()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	// Swap the payload for a different valid base64url string; the signature
	// no longer matches.
	parts[1] = "eyJyb2xlIjoib3duZXIifQ"
	_, err = svc.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"just-a-string",
		"one.two",
		"one.two.three.four",
		"!!!.???.***",
	} {
		_, err := svc.Verify(token)
		require.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)
	other, err := NewTokenService([]byte("a-completely-different-32-byte-secret!!"))
	require.NoError(t, err)

	token, err := svc.Issue(ClaimsForUser(testUser()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestClaims_StaffRoles(t *testing.T) {
	require.True(t, (&Claims{Role: models.RoleOwner}).IsStaff())
	require.True(t, (&Claims{Role: models.RoleEmployee}).IsStaff())
	require.False(t, (&Claims{Role: models.RoleLabelAdmin}).IsStaff())
	require.False(t, (&Claims{Role: models.RoleManager}).IsStaff())
	require.False(t, (&Claims{Role: models.RoleArtist}).IsStaff())
}
