// Package router assembles the fiber application and its routes.
package router

import (
	"strings"

	"techniknet-backend/internal/audit"
	"techniknet-backend/internal/auth"
	"techniknet-backend/internal/config"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/properties"
	"techniknet-backend/internal/request"
	"techniknet-backend/internal/teams"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func New(cfg *config.Config) *fiber.App {
	limit := cfg.UploadLimitMB
	if limit <= 0 {
		limit = 32
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: request.ErrorHandler,
		BodyLimit:    limit * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	app.Static(properties.MediaPrefix, cfg.ImagePath)

	images := properties.NewImageStore(cfg.ImagePath)
	loc := cfg.Location()

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-superuser", auth.RegisterSuperuserHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	admin := auth.RequireSuperuser()

	// Properties; static segments before :id
	protected.Get("/properties", properties.ListPropertiesHandler())
	protected.Post("/properties", admin, properties.CreatePropertyHandler())
	protected.Get("/properties/completed", properties.ListCompletedHandler())
	protected.Put("/properties/completed/:id", admin, properties.UpdateCompletedStatusHandler())
	protected.Get("/properties/:id", properties.GetPropertyHandler())
	protected.Put("/properties/:id/admin", admin, properties.AdminUpdatePropertyHandler())
	protected.Put("/properties/:id/user", properties.UserUpdatePropertyHandler(loc))
	protected.Delete("/properties/:id", admin, properties.DeletePropertyHandler(images))
	protected.Post("/properties/:id/images", properties.UploadImagesHandler(images))
	protected.Delete("/images/:id", properties.DeleteImageHandler(images))

	// Excel import/export
	protected.Get("/excel", admin, properties.ExcelOverviewHandler())
	protected.Post("/excel/import", admin, properties.ExcelImportHandler(cfg))
	protected.Get("/excel/export", admin, properties.ExcelExportHandler(loc))

	// Teams
	teamRoutes := protected.Group("/teams", admin)
	teamRoutes.Get("/", teams.ListTeamsHandler())
	teamRoutes.Post("/", teams.CreateTeamHandler())
	teamRoutes.Get("/:id", teams.GetTeamHandler())
	teamRoutes.Put("/:id", teams.UpdateTeamHandler())
	teamRoutes.Delete("/:id", teams.DeleteTeamHandler())
	teamRoutes.Get("/:id/members", teams.ListMembersHandler())
	teamRoutes.Post("/:id/members", teams.AddMemberHandler())
	teamRoutes.Delete("/:id/members/:userId", teams.RemoveMemberHandler())

	// Audit logs
	protected.Get("/audit-logs", admin, audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", admin, audit.UndoAuditLogHandler())

	return app
}
