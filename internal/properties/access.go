package properties

import (
	"strings"

	"techniknet-backend/internal/auth"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const PageSize = 50

// Viewer is the authenticated caller as far as property access is concerned.
type Viewer struct {
	UserID    uint
	Superuser bool
}

func viewerFrom(c *fiber.Ctx) Viewer {
	return Viewer{UserID: auth.UserID(c), Superuser: auth.IsSuperuser(c)}
}

// Teams returns every team for superusers, otherwise the viewer's own teams.
func (v Viewer) Teams(db *gorm.DB) ([]models.Team, error) {
	q := db.Model(&models.Team{}).Order("teams.name")
	if !v.Superuser {
		q = q.Joins("JOIN team_members ON team_members.team_id = teams.id").
			Where("team_members.user_id = ?", v.UserID)
	}
	var teams []models.Team
	err := q.Find(&teams).Error
	return teams, err
}

// Scope limits a property query to what the viewer may see: everything for
// superusers, otherwise properties linked to at least one of their teams.
func (v Viewer) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v.Superuser {
			return db
		}
		return db.Where("properties.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Table(database.PropertyTeamsTable).
			Select("property_teams.property_id").
			Joins("JOIN team_members ON team_members.team_id = property_teams.team_id").
			Where("team_members.user_id = ?", v.UserID))
	}
}

// CanAccess reports whether the viewer may see property id.
func (v Viewer) CanAccess(db *gorm.DB, propertyID uint) (bool, error) {
	if v.Superuser {
		return true, nil
	}
	var count int64
	err := db.Model(&models.Property{}).Scopes(v.Scope()).
		Where("properties.id = ?", propertyID).Count(&count).Error
	return count > 0, err
}

// Filter holds the list and export query parameters.
type Filter struct {
	Search string
	Status string
	TeamID uint
}

func filterFrom(c *fiber.Ctx) Filter {
	f := Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: c.Query("status"),
	}
	if id := c.QueryInt("team", 0); id > 0 {
		f.TeamID = uint(id)
	}
	return f
}

var searchColumns = []string{"number", "village", "owner_name", "owner_surname", "pop_code"}

// Scope applies a case-insensitive substring search over number, village,
// owner name, owner surname and PoP code, plus the status and team filters.
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			pattern := "%" + strings.ToLower(f.Search) + "%"
			conds := make([]string, len(searchColumns))
			args := make([]interface{}, len(searchColumns))
			for i, col := range searchColumns {
				conds[i] = "LOWER(properties." + col + ") LIKE ?"
				args[i] = pattern
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		if f.Status != "" {
			db = db.Where("properties.status = ?", f.Status)
		}
		if f.TeamID != 0 {
			db = db.Where("properties.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Table(database.PropertyTeamsTable).
				Select("property_id").
				Where("team_id = ?", f.TeamID))
		}
		return db
	}
}

func completedOnly(db *gorm.DB) *gorm.DB {
	return db.Where("properties.status IN ?", models.CompletedStatuses)
}

func excludeCompleted(db *gorm.DB) *gorm.DB {
	return db.Where("properties.status NOT IN ?", models.CompletedStatuses)
}

// Page is one page of a property listing.
type Page struct {
	Items      []models.Property `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
}

// paginate clamps page into range the way the listing pages do: anything
// below 1 is the first page, anything past the end is the last page.
func paginate(q *gorm.DB, page int, order ...string) (*Page, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	pages := int((total + PageSize - 1) / PageSize)
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	list := q.Session(&gorm.Session{}).Preload("Teams", func(db *gorm.DB) *gorm.DB {
		return db.Order("teams.name")
	})
	for _, o := range order {
		list = list.Order(o)
	}

	items := make([]models.Property, 0)
	if err := list.Offset((page - 1) * PageSize).Limit(PageSize).Find(&items).Error; err != nil {
		return nil, err
	}
	return &Page{Items: items, Page: page, PageSize: PageSize, Total: total, TotalPages: pages}, nil
}
