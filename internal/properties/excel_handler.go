package properties

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"techniknet-backend/internal/audit"
	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/excel"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportResponse struct {
	Summary  *excel.Summary  `json:"summary"`
	Messages []excel.Message `json:"messages"`
}

func formFlag(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(key))) {
	case "on", "true", "1":
		return true
	}
	return false
}

// GET /api/excel
func ExcelOverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var total int64
		if err := database.DB.Model(&models.Property{}).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count properties")
		}
		var teams []models.Team
		if err := database.DB.Order("name").Find(&teams).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load teams")
		}
		return c.JSON(fiber.Map{
			"total_properties": total,
			"teams":            teams,
		})
	}
}

// POST /api/excel/import (multipart: excel_file, force_replace, default_team)
func ExcelImportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("excel_file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Please select an Excel file")
		}

		switch strings.ToLower(filepath.Ext(fh.Filename)) {
		case ".xlsx":
		case ".xls":
			return fiber.NewError(fiber.StatusBadRequest, "Legacy .xls files are not supported. Please save the file as .xlsx and upload it again")
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid file format. Please upload an .xlsx file")
		}

		opts := excel.Options{
			Mode:         excel.ModeForceReplaceGated,
			ForceReplace: formFlag(c, "force_replace"),
			Location:     cfg.Location(),
		}
		if raw := strings.TrimSpace(c.FormValue("default_team")); raw != "" {
			var id uint
			if _, err := fmt.Sscan(raw, &id); err == nil {
				opts.DefaultTeamID = id
			}
		}

		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not open uploaded file")
		}
		defer file.Close()

		table, err := excel.ReadTable(file)
		if err != nil {
			logger.L.Warn("excel import rejected", zap.String("file", fh.Filename), zap.Error(err))
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Error reading Excel file: %v", err))
		}

		summary := excel.NewSession(database.DB, opts).Run(table, nil)

		writeAudit(c, audit.LogOptions{
			EntityType: audit.EntityPropertyImport,
			Action:     models.AuditActionImport,
			Description: fmt.Sprintf("Imported %s: %d created, %d updated, %d skipped, %d errors",
				fh.Filename, summary.Created, summary.Updated, summary.Skipped, summary.Errored),
			After: summary,
		})

		return c.JSON(ImportResponse{
			Summary:  summary,
			Messages: summary.Messages(cfg.ImportMaxMessages),
		})
	}
}

// GET /api/excel/export?search=&team=&status=&template=true
func ExcelExportHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		template := strings.ToLower(c.Query("template")) == "true"

		var props []models.Property
		if !template {
			err := database.DB.Model(&models.Property{}).
				Scopes(filterFrom(c).Scope()).
				Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("teams.name") }).
				Order("properties.number").
				Find(&props).Error
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not load properties")
			}
		}

		data, err := excel.Export(props, excel.ExportOptions{Template: template, Location: loc})
		if err != nil {
			logger.L.Error("excel export failed", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create Excel file")
		}

		c.Attachment(excel.FileName(template, time.Now().In(loc)))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(data)
	}
}
