package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// fileKey returns the storage key from the wildcard segment of /files/*.
func fileKey(c *fiber.Ctx) (string, bool) {
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// RetrieveFile streams the blob stored under the key. This is the URL the
// hash verifier reads back after every upload.
// @Summary Retrieve stored content
// @Tags files
// @Produce octet-stream
// @Param key path string true "storage key"
// @Failure 404 {object} errorPayload
// @Router /files/{key} [get]
func RetrieveFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := fileKey(c)
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", service.NoFileMessage)
		}
		rc, info, err := docSvc.Retrieve(c.UserContext(), key)
		if err != nil {
			return writeServiceError(c, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, info.ETag)
		}
		if info.Size < 0 {
			return c.SendStream(rc)
		}
		return c.SendStream(rc, int(info.Size))
	}
}

// DeleteFile removes the blob and its metadata.
// @Summary Delete content and metadata
// @Tags files
// @Param key path string true "storage key"
// @Failure 404 {object} errorPayload
// @Router /files/{key} [delete]
func DeleteFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := fileKey(c)
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", service.NoFileMessage)
		}
		doc, err := docSvc.Delete(c.UserContext(), key)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "deleted", "storage_key": key, "document": doc})
	}
}
