package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/service"
)

type uploadResponse struct {
	Document    *model.Document `json:"document"`
	Verified    bool            `json:"verified"`
	VerifyError string          `json:"verify_error,omitempty"`
}

// UploadDocument accepts multipart/form-data with fields file, uploader_id,
// recipient_id and document_type.
// @Summary Upload a document for an account
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "content"
// @Param uploader_id formData string true "uploading account"
// @Param recipient_id formData string true "owning account"
// @Param document_type formData string true "document type name"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Router /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := docSvc.Upload(c.UserContext(), service.UploadInput{
			UploaderID:   c.FormValue("uploader_id"),
			RecipientID:  c.FormValue("recipient_id"),
			DocumentType: c.FormValue("document_type"),
			Filename:     fh.Filename,
			ContentType:  ct,
			Size:         fh.Size,
			Reader:       f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}

		out := uploadResponse{Document: res.Document, Verified: res.Verified}
		if res.VerifyErr != nil {
			out.VerifyError = "content hash could not be verified"
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// GetDocument returns document metadata by id.
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ListAccountDocuments returns the documents linked to an account, oldest first.
// @Summary List an account's documents
// @Tags accounts
// @Produce json
// @Param id path string true "account id"
// @Failure 404 {object} errorPayload
// @Router /accounts/{id}/documents [get]
func ListAccountDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		items, err := docSvc.ListDocuments(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// @Summary Attach an issued credential
// @Tags documents
// @Param id path string true "document id"
// @Param body body model.Attachment true "credential"
// @Success 200 {object} model.Document
// @Router /documents/{id}/credential [post]
func AttachCredential(docSvc service.DocumentService) fiber.Handler {
	return attachHandler(docSvc.AttachCredential)
}

// @Summary Attach an issued presentation
// @Tags documents
// @Param id path string true "document id"
// @Param body body model.Attachment true "presentation"
// @Success 200 {object} model.Document
// @Router /documents/{id}/presentation [post]
func AttachPresentation(docSvc service.DocumentService) fiber.Handler {
	return attachHandler(docSvc.AttachPresentation)
}

func attachHandler(attach func(ctx context.Context, id string, a model.Attachment) (*model.Document, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body model.Attachment
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := attach(c.UserContext(), id, body)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ListDocumentTypes returns every known document type.
// @Summary List document types
// @Tags documents
// @Produce json
// @Router /document-types [get]
func ListDocumentTypes(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := docSvc.ListDocumentTypes(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}
