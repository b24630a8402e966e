package audit

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"techniknet-backend/internal/apitest"
	"techniknet-backend/internal/auth"
	"techniknet-backend/internal/config"
	"techniknet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditHandlers(t *testing.T) {
	db, alpha, _ := setup(t)
	cfg := &config.Config{JWTSecret: strings.Repeat("k", 32)}
	root := apitest.CreateUser(t, db, "root", models.RoleSuperuser)
	token, err := auth.GenerateToken(cfg.JWTSecret, &root)
	require.NoError(t, err)

	app := apitest.NewApp()
	logs := app.Group("/api/audit-logs", auth.JWTMiddleware(cfg), auth.RequireSuperuser())
	logs.Get("/", ListAuditLogsHandler())
	logs.Post("/:id/undo", UndoAuditLogHandler())

	before := alpha
	require.NoError(t, db.Model(&alpha).Update("name", "Omega").Error)
	require.NoError(t, WriteLog(LogOptions{
		UserID: root.ID, UserName: "root", EntityType: EntityTeam, EntityID: alpha.ID,
		Action: models.AuditActionUpdate, Description: "Renamed team", Before: before, After: alpha,
	}))
	require.NoError(t, WriteLog(LogOptions{
		UserID: root.ID, UserName: "root", EntityType: EntityPropertyImport, Action: models.AuditActionImport,
	}))

	resp := apitest.Do(t, app, http.MethodGet, "/api/audit-logs?entity_type=team", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []AuditLogResponse
	apitest.Decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed team", list[0].Description)

	path := fmt.Sprintf("/api/audit-logs/%d/undo", list[0].ID)
	resp = apitest.Do(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = apitest.Do(t, app, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = apitest.Do(t, app, http.MethodPost, "/api/audit-logs/999/undo", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = apitest.Do(t, app, http.MethodGet, "/api/audit-logs?action=undo", token, nil)
	apitest.Decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "root", list[0].UserName)
}
