package teams

import (
	"errors"
	"fmt"
	"strings"

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

type TeamResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	MemberCount   int64  `json:"member_count"`
	PropertyCount int64  `json:"property_count"`
	CreatedAt     string `json:"created_at"`
}

type TeamRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// AddMemberRequest either names an existing user (user_id) or creates a new
// member account from username, email and password.
type AddMemberRequest struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username" validate:"max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=100"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type MemberResponse struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	JoinedAt string `json:"joined_at"`
}

// ----------------------------------------
// Helpers
// ----------------------------------------

func teamID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid team id")
	}
	return uint(id), nil
}

func loadTeam(id uint) (*models.Team, error) {
	var team models.Team
	if err := database.DB.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Team not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load team")
	}
	return &team, nil
}

func nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Team{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

func toResponse(t models.Team) TeamResponse {
	resp := TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	database.DB.Model(&models.TeamMember{}).Where("team_id = ?", t.ID).Count(&resp.MemberCount)
	database.DB.Table(database.PropertyTeamsTable).Where("team_id = ?", t.ID).Count(&resp.PropertyCount)
	return resp
}

func writeAudit(c *fiber.Ctx, opts audit.LogOptions) {
	opts.UserID = auth.UserID(c)
	opts.UserName = auth.Username(c)
	if err := audit.WriteLog(opts); err != nil {
		logger.L.Warn("audit log not written", zap.String("entity_type", opts.EntityType), zap.Error(err))
	}
}

// ----------------------------------------
// TEAM CRUD
// ----------------------------------------

// GET /api/teams
func ListTeamsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var teams []models.Team
		if err := database.DB.Order("name").Find(&teams).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list teams")
		}

		res := make([]TeamResponse, 0, len(teams))
		for _, t := range teams {
			res = append(res, toResponse(t))
		}
		return c.JSON(res)
	}
}

// POST /api/teams
func CreateTeamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TeamRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Team name must not be empty")
		}

		taken, err := nameTaken(body.Name, 0)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check team name")
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Team %s already exists", body.Name))
		}

		team := models.Team{Name: body.Name, Description: strings.TrimSpace(body.Description)}
		if err := database.DB.Create(&team).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create team")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityTeam,
			EntityID:    team.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Team %s created", team.Name),
			After:       team,
		})
		return c.Status(fiber.StatusCreated).JSON(toResponse(team))
	}
}

// GET /api/teams/:id
func GetTeamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		team, err := loadTeam(id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*team))
	}
}

// PUT /api/teams/:id
func UpdateTeamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		team, err := loadTeam(id)
		if err != nil {
			return err
		}
		before := *team

		var body TeamRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Team name must not be empty")
		}
		taken, err := nameTaken(name, id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check team name")
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Team %s already exists", name))
		}

		team.Name = name
		team.Description = strings.TrimSpace(body.Description)
		if err := database.DB.Save(team).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update team")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityTeam,
			EntityID:    team.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Team %s updated", team.Name),
			Before:      before,
			After:       team,
		})
		return c.JSON(toResponse(*team))
	}
}

// DELETE /api/teams/:id unlinks the team's properties and memberships; the
// properties themselves stay.
func DeleteTeamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		team, err := loadTeam(id)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(team).Association("Properties").Clear(); err != nil {
				return err
			}
			if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
				return err
			}
			return tx.Delete(team).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete team")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityTeam,
			EntityID:    team.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Team %s deleted", team.Name),
			Before:      team,
		})
		return c.JSON(fiber.Map{"message": fmt.Sprintf("Team %s deleted", team.Name)})
	}
}

// ----------------------------------------
// MEMBERS
// ----------------------------------------

// GET /api/teams/:id/members
func ListMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		if _, err := loadTeam(id); err != nil {
			return err
		}

		var members []models.TeamMember
		if err := database.DB.Preload("User").
			Where("team_id = ?", id).
			Order("joined_at").
			Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list members")
		}

		res := make([]MemberResponse, 0, len(members))
		for _, m := range members {
			if m.User == nil {
				continue
			}
			res = append(res, MemberResponse{
				UserID:   m.UserID,
				Username: m.User.Username,
				Email:    m.User.Email,
				JoinedAt: m.JoinedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/teams/:id/members
func AddMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		team, err := loadTeam(id)
		if err != nil {
			return err
		}

		var body AddMemberRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		if body.UserID == 0 && (strings.TrimSpace(body.Username) == "" || body.Email == "" || body.Password == "") {
			return fiber.NewError(fiber.StatusBadRequest, "Either user_id or username, email and password are required")
		}

		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if body.UserID != 0 {
				if err := tx.First(&user, body.UserID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, "User not found")
				}
			} else {
				hash, err := auth.HashPassword(body.Password)
				if err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
				}
				user = models.User{
					Username:     strings.TrimSpace(body.Username),
					Email:        strings.TrimSpace(strings.ToLower(body.Email)),
					PasswordHash: hash,
					Role:         models.RoleMember,
				}
				if err := tx.Create(&user).Error; err != nil {
					return fiber.NewError(fiber.StatusConflict, "Username or email already in use")
				}
			}

			var count int64
			if err := tx.Model(&models.TeamMember{}).
				Where("team_id = ? AND user_id = ?", team.ID, user.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("%s is already a member of %s", user.Username, team.Name))
			}
			return tx.Create(&models.TeamMember{TeamID: team.ID, UserID: user.ID}).Error
		})
		if err != nil {
			return err
		}

		logger.L.Info("team member added",
			zap.Uint("team_id", team.ID),
			zap.Uint("user_id", user.ID),
			zap.String("by", auth.Username(c)))

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("%s added to %s", user.Username, team.Name),
			"user":    user,
		})
	}
}

// DELETE /api/teams/:id/members/:userId
func RemoveMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := teamID(c)
		if err != nil {
			return err
		}
		userID, err := c.ParamsInt("userId")
		if err != nil || userID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
		}

		res := database.DB.Where("team_id = ? AND user_id = ?", id, userID).Delete(&models.TeamMember{})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not remove member")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Membership not found")
		}
		return c.JSON(fiber.Map{"message": "Member removed"})
	}
}
