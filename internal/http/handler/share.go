package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/service"
)

type shareRequestBody struct {
	RequestingAccountID string `json:"requesting_account_id"`
	DocumentType        string `json:"document_type"`
}

// RequestShare records that the caller wants documents of a type from account :id.
// @Summary Request documents of a type from an account
// @Tags accounts
// @Param id path string true "target account id"
// @Param body body shareRequestBody true "request"
// @Success 201 {object} model.Account
// @Router /accounts/{id}/share-requests [post]
func RequestShare(shareSvc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Params("id")
		if _, err := uuid.Parse(target); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body shareRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		acc, err := shareSvc.RequestShare(c.UserContext(), service.ShareRequestInput{
			RequestingAccountID: body.RequestingAccountID,
			TargetAccountID:     target,
			DocumentType:        body.DocumentType,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(acc)
	}
}
