// Package apitest holds helpers for exercising fiber handlers in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"techniknet-backend/internal/models"
	"techniknet-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const Password = "secret-password"

// NewApp returns an app with the production error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: request.ErrorHandler})
}

// CreateUser stores a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: string(hash), Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// AddMember puts user into team.
func AddMember(t *testing.T, db *gorm.DB, team *models.Team, user *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: user.ID}).Error)
}

// Do sends body as JSON (nil sends no body) with an optional bearer token.
func Do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return send(t, app, req, token)
}

// File is one multipart file part.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// Upload sends a multipart form with fields and files.
func Upload(t *testing.T, app *fiber.App, path, token string, fields map[string]string, files ...File) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return send(t, app, req, token)
}

func send(t *testing.T, app *fiber.App, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Decode reads a JSON response body into v.
func Decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// Body reads the whole response body.
func Body(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}
