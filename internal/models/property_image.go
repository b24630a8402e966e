package models

import "time"

type PropertyImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PropertyID   uint      `gorm:"not null;index" json:"property_id"`
	FilePath     string    `gorm:"size:500;not null" json:"file_path"` // relative to the image directory
	OriginalName string    `gorm:"size:255" json:"original_name"`
	UploadedByID *uint     `json:"uploaded_by_id"`
	UploadedBy   *User     `gorm:"foreignKey:UploadedByID;constraint:OnDelete:SET NULL" json:"-"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
