package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

// PrincipalKind distinguishes chat bridges from human operators.
type PrincipalKind string

const (
	KindBridge   PrincipalKind = "bridge"
	KindOperator PrincipalKind = "operator"
)

// Valid reports whether k is a known kind.
func (k PrincipalKind) Valid() bool {
	return k == KindBridge || k == KindOperator
}

// RequireKind ensures the authenticated principal has one of the allowed kinds.
func RequireKind(allowed ...PrincipalKind) fiber.Handler {
	allowedSet := make(map[PrincipalKind]struct{}, len(allowed))
	for _, kind := range allowed {
		allowedSet[kind] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Kind]; !exists {
			return apperrors.NewForbidden("insufficient privileges")
		}
		return c.Next()
	}
}
