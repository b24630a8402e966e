package database

import (
	"fmt"

	"techniknet-backend/internal/config"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open connects to Postgres and migrates the schema without touching DB.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Init connects the global DB. Any failure is fatal.
func Init(cfg *config.Config) {
	db, err := Open(cfg.DatabaseDSN)
	if err != nil {
		logger.L.Fatal("database init failed", zap.Error(err))
	}

	DB = db
	logger.L.Info("database connected, migration finished")
}

// Migrate creates or updates every table. Tests call it against SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Property{},
		&models.PropertyImage{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// PropertyTeamsTable is the many2many join table behind Property.Teams.
const PropertyTeamsTable = "property_teams"
