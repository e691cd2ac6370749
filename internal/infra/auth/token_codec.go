package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"

	"gestor/config"
	domainerrors "gestor/internal/domain/errors"
	"gestor/internal/domain/service"
	"gestor/internal/errors"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// refreshSecretBytes is the entropy of the raw refresh secret (jti).
	refreshSecretBytes = 64

	secretboxKeyBytes   = 32
	secretboxNonceBytes = 24
)

// tokenCodec implements service.TokenService with HS256 JWTs. The sensitive
// access-claim payload (identity, tenant, fingerprint digest) is not left
// readable in the token: it is sealed with secretbox into a single opaque
// claim, so possession of the token alone reveals nothing about the subject.
type tokenCodec struct {
	signingKey  []byte
	claimsKey   [secretboxKeyBytes]byte
	fingerprint service.FingerprintHasher
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// accessPayload is the encrypted content of the "data" claim.
type accessPayload struct {
	Sub    string `json:"sub"`
	Tenant string `json:"tenant"`
	Fgp    string `json:"fgp,omitempty"`
}

// NewTokenCodec is the constructor for the token codec.
func NewTokenCodec(cfg *config.Config, fingerprint service.FingerprintHasher) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("token signing secret must be provided")
	}

	rawClaimsKey, err := base64.StdEncoding.DecodeString(cfg.SecretKey.Claims)
	if err != nil {
		return nil, errors.Wrap(err, "claims encryption key is not valid base64")
	}
	if len(rawClaimsKey) != secretboxKeyBytes {
		return nil, errors.Errorf("claims encryption key must be %d bytes, got %d", secretboxKeyBytes, len(rawClaimsKey))
	}

	codec := &tokenCodec{
		signingKey:  []byte(cfg.SecretKey.Access),
		fingerprint: fingerprint,
		accessTTL:   cfg.Auth.AccessTokenTTL,
		refreshTTL:  cfg.Auth.RefreshTokenTTL,
	}
	copy(codec.claimsKey[:], rawClaimsKey)

	return codec, nil
}

// IssueAccessToken mints a short-lived signed credential binding the
// identity, its tenant, and (when supplied) the client fingerprint digest.
func (c *tokenCodec) IssueAccessToken(userID, tenantID uuid.UUID, deviceFingerprint string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.accessTTL)

	payload := accessPayload{
		Sub:    userID.String(),
		Tenant: tenantID.String(),
	}
	if deviceFingerprint != "" {
		payload.Fgp = c.fingerprint.Digest(deviceFingerprint)
	}

	sealed, err := c.sealPayload(payload)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to seal access claims")
	}

	claims := jwt.MapClaims{
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		"type": tokenTypeAccess,
		"data": sealed,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign access token")
	}

	return token, expiresAt, nil
}

// VerifyAccessToken checks signature, expiry, type tag and fingerprint.
// The caller always sees the same invalid-credential error; internal
// wrapping preserves the cause for logs.
func (c *tokenCodec) VerifyAccessToken(token, deviceFingerprint string) (*service.AccessTokenClaims, error) {
	claims, err := c.parse(token, tokenTypeAccess)
	if err != nil {
		return nil, domainerrors.ErrInvalidAccessToken.WrapMessage(err.Error())
	}

	sealed, ok := claims["data"].(string)
	if !ok || sealed == "" {
		return nil, domainerrors.ErrInvalidAccessToken.WrapMessage("missing claim payload")
	}

	var payload accessPayload
	if err := c.openPayload(sealed, &payload); err != nil {
		return nil, domainerrors.ErrInvalidAccessToken.WrapMessage("unreadable claim payload")
	}

	userID, err := uuid.Parse(payload.Sub)
	if err != nil {
		return nil, domainerrors.ErrInvalidAccessToken.WrapMessage("malformed subject")
	}
	tenantID, err := uuid.Parse(payload.Tenant)
	if err != nil {
		return nil, domainerrors.ErrInvalidAccessToken.WrapMessage("malformed tenant")
	}

	if payload.Fgp != "" {
		if deviceFingerprint == "" || c.fingerprint.Digest(deviceFingerprint) != payload.Fgp {
			return nil, domainerrors.ErrInvalidAccessToken.WrapMessage("fingerprint mismatch")
		}
	}

	return &service.AccessTokenClaims{
		UserID:          userID,
		TenantID:        tenantID,
		FingerprintHash: payload.Fgp,
	}, nil
}

// IssueRefreshToken mints a refresh credential envelope around a fresh
// high-entropy secret. A nil family id starts a new rotation family.
func (c *tokenCodec) IssueRefreshToken(familyID uuid.UUID) (*service.IssuedRefreshToken, error) {
	if familyID == uuid.Nil {
		familyID = uuid.New()
	}

	secret := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh secret")
	}
	jti := base64.RawURLEncoding.EncodeToString(secret)

	now := time.Now()
	expiresAt := now.Add(c.refreshTTL)

	claims := jwt.MapClaims{
		"jti":  jti,
		"fam":  familyID.String(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		"type": tokenTypeRefresh,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign refresh token")
	}

	return &service.IssuedRefreshToken{
		Token:     token,
		TokenHash: digestSecret(jti),
		FamilyID:  familyID,
		ExpiresAt: expiresAt,
	}, nil
}

// DecodeRefreshToken verifies the envelope and returns the secret digest
// used for store lookup. The raw secret never leaves this method.
func (c *tokenCodec) DecodeRefreshToken(token string) (*service.RefreshTokenClaims, error) {
	claims, err := c.parse(token, tokenTypeRefresh)
	if err != nil {
		return nil, domainerrors.ErrInvalidRefreshToken.WrapMessage(err.Error())
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, domainerrors.ErrInvalidRefreshToken.WrapMessage("missing jti")
	}

	famStr, _ := claims["fam"].(string)
	familyID, err := uuid.Parse(famStr)
	if err != nil {
		return nil, domainerrors.ErrInvalidRefreshToken.WrapMessage("malformed family id")
	}

	return &service.RefreshTokenClaims{
		TokenHash: digestSecret(jti),
		FamilyID:  familyID,
	}, nil
}

// AccessTokenTTL returns the configured access credential lifetime.
func (c *tokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// RefreshTokenTTL returns the configured refresh credential lifetime.
func (c *tokenCodec) RefreshTokenTTL() time.Duration {
	return c.refreshTTL
}

// parse validates signature, expiry and the type tag.
func (c *tokenCodec) parse(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return c.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token validation failed")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unreadable claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return nil, errors.New("wrong token type")
	}

	return claims, nil
}

func (c *tokenCodec) sealPayload(payload accessPayload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal payload")
	}

	var nonce [secretboxNonceBytes]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", errors.Wrap(err, "generate nonce")
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.claimsKey)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *tokenCodec) openPayload(sealed string, payload *accessPayload) error {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return errors.Wrap(err, "decode payload")
	}
	if len(raw) < secretboxNonceBytes {
		return errors.New("payload too short")
	}

	var nonce [secretboxNonceBytes]byte
	copy(nonce[:], raw[:secretboxNonceBytes])

	plaintext, ok := secretbox.Open(nil, raw[secretboxNonceBytes:], &nonce, &c.claimsKey)
	if !ok {
		return errors.New("payload authentication failed")
	}

	return errors.Wrap(json.Unmarshal(plaintext, payload), "unmarshal payload")
}

// digestSecret is the store-side digest of a raw refresh secret.
func digestSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))

	return hex.EncodeToString(sum[:])
}
