package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

const (
	principalKey = "auth_principal"
	apiKeyHeader = "X-API-Key"
	// apiKeySubject names callers that authenticated with the shared bridge key.
	apiKeySubject = "api-key"
)

// Principal is the caller a request was authenticated as.
type Principal struct {
	Subject string
	Kind    PrincipalKind
}

// AuthMiddleware admits chat bridges by X-API-Key and bridges or operators by
// bearer JWT.
type AuthMiddleware struct {
	tokens     *TokenManager
	apiKeyHash string
}

// NewAuthMiddleware constructs middleware. An empty apiKeyHash disables API key auth.
func NewAuthMiddleware(tokens *TokenManager, apiKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, apiKeyHash: apiKeyHash}
}

// Handle stores the authenticated Principal in the request locals.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.authenticate(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*Principal, error) {
	// an API key, when present, is authoritative even if a bearer token is also sent
	if key := c.Get(apiKeyHeader); key != "" {
		if m.apiKeyHash == "" || CompareAPIKey(m.apiKeyHash, key) != nil {
			return nil, apperrors.NewUnauthorized("invalid api key")
		}
		return &Principal{Subject: apiKeySubject, Kind: KindBridge}, nil
	}

	raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return &Principal{Subject: claims.Subject, Kind: claims.Kind}, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return token, nil
}

// PrincipalFromContext returns the caller stored by Handle.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
