package auth

import (
	"net/http"
	"testing"

	"techniknet-backend/internal/apitest"
	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database/dbtest"
	"techniknet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()
	db := dbtest.Open(t)
	dbtest.UseAsGlobal(t, db)
	cfg := &config.Config{JWTSecret: testSecret}

	app := apitest.NewApp()
	api := app.Group("/api")
	api.Post("/auth/register-superuser", RegisterSuperuserHandler())
	api.Post("/auth/login", LoginHandler(cfg))

	protected := api.Group("", JWTMiddleware(cfg))
	protected.Get("/auth/me", MeHandler())
	protected.Get("/admin-only", RequireSuperuser(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, db, cfg
}

func TestRegisterSuperuser(t *testing.T) {
	app, db, _ := setupApp(t)

	resp := apitest.Do(t, app, http.MethodPost, "/api/auth/register-superuser", "", fiber.Map{"username": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := fiber.Map{"username": "root", "email": "Root@Example.com", "password": "long-enough"}
	resp = apitest.Do(t, app, http.MethodPost, "/api/auth/register-superuser", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	apitest.Decode(t, resp, &created)
	assert.Equal(t, "root@example.com", created["email"])
	assert.NotContains(t, created, "PasswordHash")

	var user models.User
	require.NoError(t, db.Where("username = ?", "root").First(&user).Error)
	assert.True(t, user.IsSuperuser())

	body["username"] = "second"
	resp = apitest.Do(t, app, http.MethodPost, "/api/auth/register-superuser", "", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, db, cfg := setupApp(t)
	user := apitest.CreateUser(t, db, "anna", models.RoleMember)

	for _, login := range []string{"anna", "anna@example.com"} {
		resp := apitest.Do(t, app, http.MethodPost, "/api/auth/login", "",
			fiber.Map{"login": login, "password": apitest.Password})
		require.Equal(t, http.StatusOK, resp.StatusCode, login)

		var out struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		apitest.Decode(t, resp, &out)
		assert.Equal(t, user.ID, out.User.ID)

		claims, err := ParseToken(cfg.JWTSecret, out.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	}

	resp := apitest.Do(t, app, http.MethodPost, "/api/auth/login", "",
		fiber.Map{"login": "anna", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	app, db, cfg := setupApp(t)
	user := apitest.CreateUser(t, db, "anna", models.RoleMember)
	team := models.Team{Name: "Nord"}
	require.NoError(t, db.Create(&team).Error)
	apitest.AddMember(t, db, &team, &user)

	token, err := GenerateToken(cfg.JWTSecret, &user)
	require.NoError(t, err)

	resp := apitest.Do(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		User  models.User   `json:"user"`
		Teams []models.Team `json:"teams"`
	}
	apitest.Decode(t, resp, &out)
	assert.Equal(t, "anna", out.User.Username)
	require.Len(t, out.Teams, 1)
	assert.Equal(t, "Nord", out.Teams[0].Name)

	resp = apitest.Do(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = apitest.Do(t, app, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireSuperuser(t *testing.T) {
	app, db, cfg := setupApp(t)
	member := apitest.CreateUser(t, db, "anna", models.RoleMember)
	admin := apitest.CreateUser(t, db, "root", models.RoleSuperuser)

	memberToken, err := GenerateToken(cfg.JWTSecret, &member)
	require.NoError(t, err)
	adminToken, err := GenerateToken(cfg.JWTSecret, &admin)
	require.NoError(t, err)

	resp := apitest.Do(t, app, http.MethodGet, "/api/admin-only", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = apitest.Do(t, app, http.MethodGet, "/api/admin-only", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
