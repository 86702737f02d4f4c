package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RoleHeader carries the caller's role. This service does not authenticate: it must run behind
// a gateway that drops any client-supplied value and sets the header from the verified identity.
// Reached directly, any client can claim any role.
const RoleHeader = "X-Account-Role"

// Permissions checked by the routes.
const (
	PermDocumentRead    = "document:read"
	PermDocumentWrite   = "document:write"
	PermDocumentDelete  = "document:delete"
	PermShareRequest    = "share:request"
	PermPermissionWrite = "permission:write"
)

// PermissionChecker answers from the cached permission table.
type PermissionChecker interface {
	Allows(role, permission string) bool
}

// RequirePermission rejects the request with 403 unless the caller's role holds perm.
// With an empty permission table every request passes, including the one that writes the first table.
func RequirePermission(checker PermissionChecker, perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !checker.Allows(c.Get(RoleHeader), perm) {
			return fiber.NewError(fiber.StatusForbidden, "permission denied: "+perm)
		}
		return c.Next()
	}
}
