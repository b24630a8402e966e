package properties

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"techniknet-backend/internal/audit"
	"techniknet-backend/internal/auth"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"
	"techniknet-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

// AdminPropertyRequest carries the address and owner fields only superusers edit.
type AdminPropertyRequest struct {
	Number           string `json:"number" validate:"required,max=50"`
	AddressID        string `json:"address_id" validate:"max=50"`
	Village          string `json:"village" validate:"max=100"`
	Street           string `json:"street" validate:"max=200"`
	HouseNumber      string `json:"house_number" validate:"max=20"`
	HouseNumberAffix string `json:"house_number_affix" validate:"max=10"`
	OwnerEmail       string `json:"owner_email" validate:"omitempty,email,max=254"`
	OwnerName        string `json:"owner_name" validate:"max=100"`
	OwnerSurname     string `json:"owner_surname" validate:"max=100"`
	OwnerPhone1      string `json:"owner_phone_1" validate:"max=20"`
	OwnerPhone2      string `json:"owner_phone_2" validate:"max=20"`
	PopCode          string `json:"pop_code" validate:"max=20"`
	TeamIDs          []uint `json:"team_ids"`
}

// UserPropertyRequest carries the technical fields team members maintain.
// Dates use the datetime-local format (2006-01-02T15:04); unparsable dates clear the field.
type UserPropertyRequest struct {
	GebauteUnits *int   `json:"gebaute_units"`
	HBG          string `json:"hbg" validate:"omitempty,oneof=Ja Nein"`
	HBGTermin    string `json:"hbg_termin"`
	AusbauTermin string `json:"ausbau_termin"`
	KL15m        int    `json:"kl_15m" validate:"min=0"`
	KL20m        int    `json:"kl_20m" validate:"min=0"`
	KL30m        int    `json:"kl_30m" validate:"min=0"`
	KL50m        int    `json:"kl_50m" validate:"min=0"`
	KL80m        int    `json:"kl_80m" validate:"min=0"`
	KL100m       int    `json:"kl_100m" validate:"min=0"`
	Keller       string `json:"keller" validate:"omitempty,oneof=Ja Nein"`
	Huep         string `json:"huep" validate:"omitempty,oneof=Ja Nein"`
	Spleissen    string `json:"spleissen" validate:"omitempty,oneof=Ja Nein"`
	OhneInfra    int    `json:"ohne_infra"`
	MitInfra     int    `json:"mit_infra"`
	Status       string `json:"status"`
	Comments     string `json:"comments"`
}

type CompletedStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ImageResponse struct {
	ID           uint      `json:"id"`
	URL          string    `json:"url"`
	OriginalName string    `json:"original_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type PropertyDetailResponse struct {
	models.Property
	TeamNames   string          `json:"team_names"`
	StatusLabel string          `json:"status_label"`
	CanUserEdit bool            `json:"can_user_edit"`
	Images      []ImageResponse `json:"images"`
}

type ListResponse struct {
	*Page
	Teams    []models.Team `json:"teams"`
	Statuses []string      `json:"statuses,omitempty"`
}

// -------------------------
// Helpers
// -------------------------

func propertyID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid property id")
	}
	return uint(id), nil
}

func loadProperty(id uint, preload ...string) (*models.Property, error) {
	q := database.DB
	for _, p := range preload {
		q = q.Preload(p)
	}
	var p models.Property
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Property not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load property")
	}
	return &p, nil
}

// loadAccessible loads a property and enforces the viewer's team access.
func loadAccessible(c *fiber.Ctx, id uint, preload ...string) (*models.Property, error) {
	p, err := loadProperty(id, preload...)
	if err != nil {
		return nil, err
	}
	ok, err := viewerFrom(c).CanAccess(database.DB, p.ID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check access")
	}
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Access denied: you do not have permission to view this property")
	}
	return p, nil
}

func loadTeams(tx *gorm.DB, ids []uint) ([]models.Team, error) {
	teams := make([]models.Team, 0, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&teams).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load teams")
	}
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	if len(teams) != len(seen) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "One or more teams do not exist")
	}
	return teams, nil
}

func numberTaken(tx *gorm.DB, number string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Property{}).
		Where("number = ? AND id <> ?", number, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *AdminPropertyRequest) apply(p *models.Property) {
	p.Number = strings.TrimSpace(r.Number)
	p.AddressID = strings.TrimSpace(r.AddressID)
	p.Village = strings.TrimSpace(r.Village)
	p.Street = strings.TrimSpace(r.Street)
	p.HouseNumber = strings.TrimSpace(r.HouseNumber)
	p.HouseNumberAffix = strings.TrimSpace(r.HouseNumberAffix)
	p.OwnerEmail = strings.TrimSpace(r.OwnerEmail)
	p.OwnerName = strings.TrimSpace(r.OwnerName)
	p.OwnerSurname = strings.TrimSpace(r.OwnerSurname)
	p.OwnerPhone1 = strings.TrimSpace(r.OwnerPhone1)
	p.OwnerPhone2 = strings.TrimSpace(r.OwnerPhone2)
	p.PopCode = strings.TrimSpace(r.PopCode)
}

func (r *AdminPropertyRequest) columns() map[string]interface{} {
	var p models.Property
	r.apply(&p)
	return map[string]interface{}{
		"number":             p.Number,
		"address_id":         p.AddressID,
		"village":            p.Village,
		"street":             p.Street,
		"house_number":       p.HouseNumber,
		"house_number_affix": p.HouseNumberAffix,
		"owner_email":        p.OwnerEmail,
		"owner_name":         p.OwnerName,
		"owner_surname":      p.OwnerSurname,
		"owner_phone_1":      p.OwnerPhone1,
		"owner_phone_2":      p.OwnerPhone2,
		"pop_code":           p.PopCode,
	}
}

func parseLocalDateTime(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

func (r *UserPropertyRequest) columns(loc *time.Location) map[string]interface{} {
	return map[string]interface{}{
		"gebaute_units": r.GebauteUnits,
		"hbg":           r.HBG,
		"hbg_termin":    parseLocalDateTime(r.HBGTermin, loc),
		"ausbau_termin": parseLocalDateTime(r.AusbauTermin, loc),
		"kl_15m":        r.KL15m,
		"kl_20m":        r.KL20m,
		"kl_30m":        r.KL30m,
		"kl_50m":        r.KL50m,
		"kl_80m":        r.KL80m,
		"kl_100m":       r.KL100m,
		"keller":        r.Keller,
		"huep":          r.Huep,
		"spleissen":     r.Spleissen,
		"ohne_infra":    r.OhneInfra,
		"mit_infra":     r.MitInfra,
		"status":        r.Status,
		"comments":      strings.TrimSpace(r.Comments),
	}
}

func writeAudit(c *fiber.Ctx, opts audit.LogOptions) {
	opts.UserID = auth.UserID(c)
	opts.UserName = auth.Username(c)
	if err := audit.WriteLog(opts); err != nil {
		logger.L.Warn("audit log not written",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err))
	}
}

func reloadWithTeams(id uint) (*models.Property, error) {
	return loadProperty(id, "Teams")
}

func distinctStatuses(v Viewer) ([]string, error) {
	var statuses []string
	err := database.DB.Model(&models.Property{}).
		Scopes(v.Scope(), excludeCompleted).
		Distinct("properties.status").
		Order("properties.status").
		Pluck("properties.status", &statuses).Error
	return statuses, err
}

// -------------------------
// Listings
// -------------------------

// GET /api/properties?search=&status=&team=&page=
func ListPropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := viewerFrom(c)

		q := database.DB.Model(&models.Property{}).
			Scopes(v.Scope(), excludeCompleted, filterFrom(c).Scope())
		page, err := paginate(q, c.QueryInt("page", 1),
			"CASE WHEN properties.hbg = 'Ja' THEN 0 ELSE 1 END",
			"CASE WHEN properties.ausbau_termin IS NULL THEN 1 ELSE 0 END",
			"properties.ausbau_termin",
			"properties.id",
		)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list properties")
		}

		teams, err := v.Teams(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load teams")
		}
		statuses, err := distinctStatuses(v)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load statuses")
		}

		return c.JSON(ListResponse{Page: page, Teams: teams, Statuses: statuses})
	}
}

// GET /api/properties/completed?search=&team=&status=&page=
func ListCompletedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := viewerFrom(c)

		q := database.DB.Model(&models.Property{}).
			Scopes(v.Scope(), completedOnly, filterFrom(c).Scope())
		page, err := paginate(q, c.QueryInt("page", 1), "properties.updated_at DESC", "properties.id DESC")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list completed properties")
		}

		teams, err := v.Teams(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load teams")
		}
		return c.JSON(ListResponse{Page: page, Teams: teams})
	}
}

// GET /api/properties/:id
func GetPropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}
		p, err := loadAccessible(c, id, "Teams", "Images")
		if err != nil {
			return err
		}

		images := make([]ImageResponse, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, ImageResponse{
				ID:           img.ID,
				URL:          ImageURL(img.FilePath),
				OriginalName: img.OriginalName,
				UploadedAt:   img.UploadedAt,
			})
		}
		p.Images = nil

		return c.JSON(PropertyDetailResponse{
			Property:    *p,
			TeamNames:   p.TeamNames(),
			StatusLabel: models.StatusLabel(p.Status),
			CanUserEdit: p.CanUserEdit(),
			Images:      images,
		})
	}
}

// -------------------------
// Mutations
// -------------------------

// POST /api/properties
func CreatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdminPropertyRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		var p models.Property
		body.apply(&p)
		if p.Number == "" {
			return fiber.NewError(fiber.StatusBadRequest, "number is required")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			taken, err := numberTaken(tx, p.Number, 0)
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Property %s already exists", p.Number))
			}
			teams, err := loadTeams(tx, body.TeamIDs)
			if err != nil {
				return err
			}
			p.Teams = teams
			return tx.Create(&p).Error
		})
		if err != nil {
			return err
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProperty,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Property %s created", p.Number),
			After:       p,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  fmt.Sprintf("Property %s created successfully", p.Number),
			"property": p,
		})
	}
}

// PUT /api/properties/:id/admin
func AdminUpdatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}
		var body AdminPropertyRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		before, err := reloadWithTeams(id)
		if err != nil {
			return err
		}

		fields := body.columns()
		if fields["number"] == "" {
			return fiber.NewError(fiber.StatusBadRequest, "number is required")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			taken, err := numberTaken(tx, fields["number"].(string), id)
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Property %s already exists", fields["number"]))
			}
			teams, err := loadTeams(tx, body.TeamIDs)
			if err != nil {
				return err
			}
			target := models.Property{ID: id}
			if err := tx.Model(&target).Updates(fields).Error; err != nil {
				return err
			}
			if len(teams) == 0 {
				return tx.Model(&target).Association("Teams").Clear()
			}
			return tx.Model(&target).Association("Teams").Replace(teams)
		})
		if err != nil {
			return err
		}

		after, err := reloadWithTeams(id)
		if err != nil {
			return err
		}
		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProperty,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Property %s admin fields updated", after.Number),
			Before:      before,
			After:       after,
		})

		return c.JSON(fiber.Map{
			"message":  "Admin fields updated successfully",
			"property": after,
		})
	}
}

// PUT /api/properties/:id/user
func UserUpdatePropertyHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}

		before, err := loadAccessible(c, id, "Teams")
		if err != nil {
			return err
		}
		if !before.CanUserEdit() && !auth.IsSuperuser(c) {
			return fiber.NewError(fiber.StatusForbidden, "This property is completed and cannot be edited")
		}

		var body UserPropertyRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		if !models.IsKnownStatus(body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid status")
		}

		target := models.Property{ID: id}
		if err := database.DB.Model(&target).Updates(body.columns(loc)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update property")
		}

		after, err := reloadWithTeams(id)
		if err != nil {
			return err
		}
		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProperty,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Property %s user fields updated", after.Number),
			Before:      before,
			After:       after,
		})

		return c.JSON(fiber.Map{
			"message":  "User fields updated successfully",
			"property": after,
		})
	}
}

// PUT /api/properties/completed/:id
func UpdateCompletedStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}
		var body CompletedStatusRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		if !models.IsCompletedStatus(body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid status")
		}

		before, err := reloadWithTeams(id)
		if err != nil {
			return err
		}
		if err := database.DB.Model(&models.Property{ID: id}).Update("status", body.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update status")
		}
		after, err := reloadWithTeams(id)
		if err != nil {
			return err
		}

		label := models.StatusLabel(after.Status)
		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProperty,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Property %s status set to %s", after.Number, label),
			Before:      before,
			After:       after,
		})

		return c.JSON(fiber.Map{
			"message":  fmt.Sprintf("Status updated to %s", label),
			"property": after,
		})
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler(store *ImageStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}
		p, err := loadProperty(id, "Teams", "Images")
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(p).Association("Teams").Clear(); err != nil {
				return err
			}
			if err := tx.Where("property_id = ?", id).Delete(&models.PropertyImage{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Property{}, id).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete property")
		}

		for _, img := range p.Images {
			store.Remove(img.FilePath)
		}

		images := p.Images
		p.Images = nil
		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProperty,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Property %s deleted with %d image(s)", p.Number, len(images)),
			Before:      p,
		})

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Property %s deleted", p.Number),
		})
	}
}
