package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"gestor/config"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodecConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-signing-secret"
	cfg.SecretKey.Claims = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	return cfg
}

func newTestCodec(t *testing.T) service.TokenService {
	t.Helper()

	codec, err := NewTokenCodec(testCodecConfig(), NewFingerprintHasher())
	require.NoError(t, err)

	return codec
}

func TestNewTokenCodec_RejectsBadKeys(t *testing.T) {
	cfg := testCodecConfig()
	cfg.SecretKey.Access = ""
	_, err := NewTokenCodec(cfg, NewFingerprintHasher())
	require.Error(t, err)

	cfg = testCodecConfig()
	cfg.SecretKey.Claims = "not base64!!"
	_, err = NewTokenCodec(cfg, NewFingerprintHasher())
	require.Error(t, err)

	cfg = testCodecConfig()
	cfg.SecretKey.Claims = base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = NewTokenCodec(cfg, NewFingerprintHasher())
	require.Error(t, err)
}

func TestTokenCodec_AccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	userID := uuid.New()
	tenantID := uuid.New()

	token, expiresAt, err := codec.IssueAccessToken(userID, tenantID, "device-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := codec.VerifyAccessToken(token, "device-1")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.NotEmpty(t, claims.FingerprintHash)
}

func TestTokenCodec_AccessClaimsAreOpaque(t *testing.T) {
	codec := newTestCodec(t)

	userID := uuid.New()
	token, _, err := codec.IssueAccessToken(userID, uuid.New(), "")
	require.NoError(t, err)

	// The subject must not be readable from the unauthenticated claim set.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(body), userID.String())
}

func TestTokenCodec_AccessFingerprintMismatch(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.IssueAccessToken(uuid.New(), uuid.New(), "device-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(token, "device-2")
	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)

	_, err = codec.VerifyAccessToken(token, "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)
}

func TestTokenCodec_AccessWithoutFingerprintSkipsCheck(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.IssueAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	claims, err := codec.VerifyAccessToken(token, "anything")
	require.NoError(t, err)
	assert.Empty(t, claims.FingerprintHash)
}

func TestTokenCodec_AccessTamperedToken(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.IssueAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.VerifyAccessToken(tampered, "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)
}

func TestTokenCodec_AccessRejectsForeignKey(t *testing.T) {
	codec := newTestCodec(t)

	otherCfg := testCodecConfig()
	otherCfg.SecretKey.Access = "another-signing-secret"
	otherCodec, err := NewTokenCodec(otherCfg, NewFingerprintHasher())
	require.NoError(t, err)

	token, _, err := otherCodec.IssueAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(token, "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)
}

func TestTokenCodec_RefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	issued, err := codec.IssueRefreshToken(uuid.Nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, issued.FamilyID)
	assert.NotEmpty(t, issued.TokenHash)
	assert.NotContains(t, issued.Token, issued.TokenHash)

	claims, err := codec.DecodeRefreshToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenHash, claims.TokenHash)
	assert.Equal(t, issued.FamilyID, claims.FamilyID)
}

func TestTokenCodec_RefreshKeepsFamily(t *testing.T) {
	codec := newTestCodec(t)

	familyID := uuid.New()
	issued, err := codec.IssueRefreshToken(familyID)
	require.NoError(t, err)
	assert.Equal(t, familyID, issued.FamilyID)

	// Two credentials in the same family never share a secret digest.
	second, err := codec.IssueRefreshToken(familyID)
	require.NoError(t, err)
	assert.NotEqual(t, issued.TokenHash, second.TokenHash)
}

func TestTokenCodec_TypeConfusionRejected(t *testing.T) {
	codec := newTestCodec(t)

	access, _, err := codec.IssueAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	refresh, err := codec.IssueRefreshToken(uuid.Nil)
	require.NoError(t, err)

	// An access token is not a refresh token and vice versa.
	_, err = codec.DecodeRefreshToken(access)
	require.ErrorIs(t, err, domainerrors.ErrInvalidRefreshToken)

	_, err = codec.VerifyAccessToken(refresh.Token, "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidAccessToken)
}

func TestTokenCodec_TTLAccessors(t *testing.T) {
	codec := newTestCodec(t)

	assert.Equal(t, 15*time.Minute, codec.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, codec.RefreshTokenTTL())
}
