package properties_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"techniknet-backend/internal/apitest"
	"techniknet-backend/internal/models"
	"techniknet-backend/internal/properties"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nnot really an image")

type uploadResponse struct {
	Message string                     `json:"message"`
	Images  []properties.ImageResponse `json:"images"`
}

func TestUploadImages(t *testing.T) {
	f := setup(t)
	p := f.property(t, models.Property{Number: "P1"}, f.alpha)
	path := fmt.Sprintf("/api/properties/%d/images", p.ID)

	resp := apitest.Upload(t, f.app, path, f.memberToken, nil,
		apitest.File{Field: "images", Name: "front.PNG", Data: pngBytes},
		apitest.File{Field: "images", Name: "back.jpg", Data: []byte("jpeg")},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out uploadResponse
	apitest.Decode(t, resp, &out)
	assert.Equal(t, "2 image(s) uploaded successfully", out.Message)
	require.Len(t, out.Images, 2)
	assert.Equal(t, "front.PNG", out.Images[0].OriginalName)
	assert.Regexp(t, `^/media/property_images/[0-9a-f-]{36}\.png$`, out.Images[0].URL)

	var stored []models.PropertyImage
	require.NoError(t, f.db.Where("property_id = ?", p.ID).Find(&stored).Error)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].UploadedByID)
	assert.Equal(t, f.member.ID, *stored[0].UploadedByID)
	_, err := os.Stat(filepath.Join(f.cfg.ImagePath, filepath.FromSlash(stored[0].FilePath)))
	assert.NoError(t, err)

	served := apitest.Do(t, f.app, http.MethodGet, out.Images[0].URL, "", nil)
	require.Equal(t, http.StatusOK, served.StatusCode)
	assert.Equal(t, pngBytes, apitest.Body(t, served))

	resp = apitest.Do(t, f.app, http.MethodGet, fmt.Sprintf("/api/properties/%d", p.ID), f.memberToken, nil)
	var detail properties.PropertyDetailResponse
	apitest.Decode(t, resp, &detail)
	assert.Len(t, detail.Images, 2)
}

func TestUploadImages_Rejects(t *testing.T) {
	f := setup(t)
	p := f.property(t, models.Property{Number: "P1"}, f.alpha)
	hidden := f.property(t, models.Property{Number: "P2"}, f.beta)
	path := fmt.Sprintf("/api/properties/%d/images", p.ID)

	resp := apitest.Upload(t, f.app, path, f.memberToken, map[string]string{"note": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apitest.Upload(t, f.app, path, f.memberToken, nil,
		apitest.File{Field: "images", Name: "ok.png", Data: pngBytes},
		apitest.File{Field: "images", Name: "notes.txt", Data: []byte("text")},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int64
	require.NoError(t, f.db.Model(&models.PropertyImage{}).Count(&count).Error)
	assert.Zero(t, count)
	entries, err := os.ReadDir(filepath.Join(f.cfg.ImagePath, "property_images"))
	require.NoError(t, err)
	assert.Empty(t, entries, "files of a rejected batch are removed")

	resp = apitest.Upload(t, f.app, fmt.Sprintf("/api/properties/%d/images", hidden.ID), f.memberToken, nil,
		apitest.File{Field: "images", Name: "ok.png", Data: pngBytes})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteImage(t *testing.T) {
	f := setup(t)
	p := f.property(t, models.Property{Number: "P1"}, f.alpha)
	hidden := f.property(t, models.Property{Number: "P2"}, f.beta)

	resp := apitest.Upload(t, f.app, fmt.Sprintf("/api/properties/%d/images", p.ID), f.memberToken, nil,
		apitest.File{Field: "images", Name: "a.webp", Data: []byte("webp")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out uploadResponse
	apitest.Decode(t, resp, &out)
	require.Len(t, out.Images, 1)

	var img models.PropertyImage
	require.NoError(t, f.db.First(&img, out.Images[0].ID).Error)
	file := filepath.Join(f.cfg.ImagePath, filepath.FromSlash(img.FilePath))

	other := models.PropertyImage{PropertyID: hidden.ID, FilePath: "property_images/missing.png"}
	require.NoError(t, f.db.Create(&other).Error)
	resp = apitest.Do(t, f.app, http.MethodDelete, fmt.Sprintf("/api/images/%d", other.ID), f.memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = apitest.Do(t, f.app, http.MethodDelete, fmt.Sprintf("/api/images/%d", img.ID), f.memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, f.db.First(&models.PropertyImage{}, img.ID).Error)

	resp = apitest.Do(t, f.app, http.MethodDelete, fmt.Sprintf("/api/images/%d", img.ID), f.memberToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = apitest.Do(t, f.app, http.MethodDelete, fmt.Sprintf("/api/images/%d", other.ID), f.rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "a missing file does not block the delete")
}

func TestDeletePropertyRemovesImageFiles(t *testing.T) {
	f := setup(t)
	p := f.property(t, models.Property{Number: "P1"}, f.alpha)

	resp := apitest.Upload(t, f.app, fmt.Sprintf("/api/properties/%d/images", p.ID), f.rootToken, nil,
		apitest.File{Field: "images", Name: "a.png", Data: pngBytes})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var img models.PropertyImage
	require.NoError(t, f.db.First(&img).Error)
	file := filepath.Join(f.cfg.ImagePath, filepath.FromSlash(img.FilePath))

	resp = apitest.Do(t, f.app, http.MethodDelete, fmt.Sprintf("/api/properties/%d", p.ID), f.rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}
