package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Dependencies are the collaborators the routes call into.
type Dependencies struct {
	DB          *sql.DB
	Documents   service.DocumentService
	Shares      service.ShareService
	Permissions PermissionService
	Checker     middleware.PermissionChecker
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// /files/* GET stays ungated so the hash verifier can read uploads back.
// Gated routes trust middleware.RoleHeader, so the app must only be reachable through the
// gateway that sets it; until a permission table is stored every gate is open.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	gate := func(perm string) fiber.Handler {
		return middleware.RequirePermission(d.Checker, perm)
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", Liveness())

	app.Post("/documents", gate(middleware.PermDocumentWrite), UploadDocument(d.Documents))
	app.Get("/documents/:id", gate(middleware.PermDocumentRead), GetDocument(d.Documents))
	app.Post("/documents/:id/credential", gate(middleware.PermDocumentWrite), AttachCredential(d.Documents))
	app.Post("/documents/:id/presentation", gate(middleware.PermDocumentWrite), AttachPresentation(d.Documents))
	app.Get("/document-types", ListDocumentTypes(d.Documents))

	app.Get("/accounts/:id/documents", gate(middleware.PermDocumentRead), ListAccountDocuments(d.Documents))
	app.Post("/accounts/:id/share-requests", gate(middleware.PermShareRequest), RequestShare(d.Shares))

	app.Get("/files/*", RetrieveFile(d.Documents))
	app.Delete("/files/*", gate(middleware.PermDocumentDelete), DeleteFile(d.Documents))

	app.Get("/permissions", GetPermissions(d.Permissions))
	// Open while the table is empty; seed it with cmd/permapply before exposing the service.
	app.Put("/permissions", gate(middleware.PermPermissionWrite), PutPermissions(d.Permissions))
}
