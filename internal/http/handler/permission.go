package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
)

// PermissionService reads the cached permission table and replaces the stored one.
type PermissionService interface {
	Current() model.PermissionTable
	Insert(ctx context.Context, table model.PermissionTable) (*model.PermissionSnapshot, error)
}

// GetPermissions returns the table this instance currently enforces, {} when none was ever written.
// It reads the in-process cache, so it reflects what the authorization middleware checks against.
// @Summary Permission table in effect
// @Tags permissions
// @Success 200 {object} model.PermissionTable
// @Router /permissions [get]
func GetPermissions(permSvc PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(permSvc.Current())
	}
}

// PutPermissions replaces the whole table with the request body.
// Requires permission:write from the gateway-set role header; any role passes while no table is stored.
// @Summary Replace the permission table
// @Tags permissions
// @Param body body model.PermissionTable true "role to permissions"
// @Success 200 {object} model.PermissionSnapshot
// @Failure 400 {object} errorPayload
// @Router /permissions [put]
func PutPermissions(permSvc PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var table model.PermissionTable
		if err := json.Unmarshal(c.Body(), &table); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object of role to permission list")
		}
		snap, err := permSvc.Insert(c.UserContext(), table)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snap)
	}
}
