package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued action tokens.
const DefaultTokenTTL = 5 * time.Minute

// TokenClaims are the claims of an action token. A token authorizes one
// action on one tenant for a short time.
type TokenClaims struct {
	Tenant string `json:"tenant"`
	Action string `json:"action"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key. Required.
	Secret []byte

	// Issuer is written to and required in the iss claim.
	// Default: "fragcache"
	Issuer string

	// TTL is the lifetime of issued tokens. Default: DefaultTokenTTL
	TTL time.Duration

	// Leeway tolerates clock skew when validating exp and iat.
	Leeway time.Duration

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// Now is the time source. Default: time.Now
	Now func() time.Time
}

// TokenService issues and validates short-lived action tokens signed with
// HS256. Issued tokens authenticate as the issuing principal with the
// "operator" role, scoped to the token's tenant and action.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a token service.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if len(config.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if config.Issuer == "" {
		config.Issuer = "fragcache"
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenService{config: config}, nil
}

// Issue signs a token letting subject perform action on tenant. It returns
// the token and its expiry.
func (s *TokenService) Issue(subject, tenant, action string) (string, time.Time, error) {
	if tenant == "" || action == "" {
		return "", time.Time{}, fmt.Errorf("auth: token needs a tenant and an action")
	}
	now := s.config.Now()
	exp := now.Add(s.config.TTL)

	claims := TokenClaims{
		Tenant: tenant,
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        rand.Text(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Name returns "token".
func (s *TokenService) Name() string {
	return "token"
}

// Supports returns true if the request carries a bearer token.
func (s *TokenService) Supports(_ context.Context, req *AuthRequest) bool {
	return strings.HasPrefix(req.GetHeader(s.config.HeaderName), s.config.TokenPrefix)
}

// Authenticate validates the bearer token.
func (s *TokenService) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	header := req.GetHeader(s.config.HeaderName)
	raw, found := strings.CutPrefix(header, s.config.TokenPrefix)
	if !found || strings.TrimSpace(raw) == "" {
		return AuthFailure(ErrMissingCredentials, s.Name()), nil
	}

	claims, err := s.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AuthFailure(err, s.Name()), nil
	}

	identity := &Identity{
		Principal: claims.Subject,
		TenantID:  claims.Tenant,
		Roles:     []string{RoleOperator},
		Scopes:    []string{claims.Action},
		Method:    AuthMethodToken,
		Claims:    map[string]any{"jti": claims.ID},
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return AuthSuccess(identity), nil
}

// Parse validates a token and returns its claims. Errors are
// ErrTokenExpired, ErrInvalidCredentials or ErrTokenMalformed.
func (s *TokenService) Parse(token string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.config.Leeway),
		jwt.WithTimeFunc(s.config.Now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrInvalidCredentials
	default:
		return nil, ErrTokenMalformed
	}

	if claims.Tenant == "" || claims.Action == "" {
		return nil, ErrTokenMalformed
	}
	return &claims, nil
}

var _ Authenticator = (*TokenService)(nil)
