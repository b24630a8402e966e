package properties

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"techniknet-backend/internal/auth"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// MediaPrefix is the URL prefix the image directory is served under.
	MediaPrefix = "/media"
	imageSubdir = "property_images"
)

var allowedImageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".heic": {},
}

var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageStore keeps uploaded property images below Dir. Stored paths are
// relative to Dir and use forward slashes.
type ImageStore struct {
	Dir string
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{Dir: dir}
}

// ImageURL is where a stored image is served.
func ImageURL(rel string) string {
	return path.Join(MediaPrefix, rel)
}

// Save writes the upload under a fresh name and returns its relative path.
func (s *ImageStore) Save(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, fh.Filename)
	}

	if err := os.MkdirAll(filepath.Join(s.Dir, imageSubdir), 0o755); err != nil {
		return "", fmt.Errorf("could not create image directory: %w", err)
	}

	rel := path.Join(imageSubdir, uuid.New().String()+ext)
	if err := c.SaveFile(fh, filepath.Join(s.Dir, filepath.FromSlash(rel))); err != nil {
		return "", fmt.Errorf("could not save image: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored image. Missing files are ignored; other failures are
// only logged since the database row is already gone.
func (s *ImageStore) Remove(rel string) {
	if rel == "" {
		return
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.L.Warn("could not remove image file", zap.String("path", full), zap.Error(err))
	}
}

// POST /api/properties/:id/images (multipart field "images")
func UploadImagesHandler(store *ImageStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := propertyID(c)
		if err != nil {
			return err
		}
		p, err := loadAccessible(c, id)
		if err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No images selected")
		}
		files := form.File["images"]
		if len(files) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No images selected")
		}

		uploader := auth.UserID(c)
		saved := make([]models.PropertyImage, 0, len(files))
		for _, fh := range files {
			rel, err := store.Save(c, fh)
			if err != nil {
				for _, img := range saved {
					store.Remove(img.FilePath)
				}
				if errors.Is(err, ErrUnsupportedImage) {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unsupported image type: %s", fh.Filename))
				}
				logger.L.Error("image upload failed", zap.Uint("property_id", p.ID), zap.Error(err))
				return fiber.NewError(fiber.StatusInternalServerError, "Could not store image")
			}
			saved = append(saved, models.PropertyImage{
				PropertyID:   p.ID,
				FilePath:     rel,
				OriginalName: filepath.Base(fh.Filename),
				UploadedByID: &uploader,
			})
		}

		if err := database.DB.Create(&saved).Error; err != nil {
			for _, img := range saved {
				store.Remove(img.FilePath)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save images")
		}

		resp := make([]ImageResponse, 0, len(saved))
		for _, img := range saved {
			resp = append(resp, ImageResponse{
				ID:           img.ID,
				URL:          ImageURL(img.FilePath),
				OriginalName: img.OriginalName,
				UploadedAt:   img.UploadedAt,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("%d image(s) uploaded successfully", len(saved)),
			"images":  resp,
		})
	}
}

// DELETE /api/images/:id
func DeleteImageHandler(store *ImageStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid image id")
		}

		var img models.PropertyImage
		if err := database.DB.First(&img, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Image not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load image")
		}

		if _, err := loadAccessible(c, img.PropertyID); err != nil {
			return err
		}

		if err := database.DB.Delete(&img).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete image")
		}
		store.Remove(img.FilePath)

		return c.JSON(fiber.Map{
			"message":     "Image deleted",
			"property_id": img.PropertyID,
		})
	}
}
