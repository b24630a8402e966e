package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"techniknet-backend/internal/database"
	"techniknet-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityProperty       = "property"
	EntityTeam           = "team"
	EntityPropertyImport = "property_import"
)

var (
	ErrAlreadyUndone = errors.New("this change has already been undone")
	ErrNotUndoable   = errors.New("this kind of change cannot be undone")
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func snapshot(v any) string {
	// jsonb rejects the empty string
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func WriteLog(opts LogOptions) error {
	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}
	return nil
}

// UndoLog reverts the change recorded by log logID and records the undo.
func UndoLog(logID uint, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}
		if log.UndoEntry {
			return ErrNotUndoable
		}

		var err error
		switch log.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, log.EntityType, log.EntityID)
		case models.AuditActionUpdate:
			err = restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData)
		case models.AuditActionDelete:
			err = recreateEntity(tx, log.EntityType, log.BeforeData)
		default:
			return ErrNotUndoable
		}
		if err != nil {
			return err
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &userID
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("could not mark log as undone: %w", err)
		}

		undoLog := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", log.Description),
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			UndoEntry:   true,
		}
		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("could not write undo log: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityProperty:
		p := models.Property{ID: entityID}
		if err := tx.Model(&p).Association("Teams").Clear(); err != nil {
			return fmt.Errorf("could not unlink teams: %w", err)
		}
		if err := tx.Where("property_id = ?", entityID).Delete(&models.PropertyImage{}).Error; err != nil {
			return fmt.Errorf("could not delete images: %w", err)
		}
		return tx.Delete(&models.Property{}, "id = ?", entityID).Error
	case EntityTeam:
		team := models.Team{ID: entityID}
		if err := tx.Model(&team).Association("Properties").Clear(); err != nil {
			return fmt.Errorf("could not unlink properties: %w", err)
		}
		if err := tx.Where("team_id = ?", entityID).Delete(&models.TeamMember{}).Error; err != nil {
			return fmt.Errorf("could not remove members: %w", err)
		}
		return tx.Delete(&models.Team{}, "id = ?", entityID).Error
	}
	return fmt.Errorf("unknown entity type: %s", entityType)
}

// recreateEntity inserts the snapshot again under its old id and restores the
// team links that still resolve.
func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case EntityProperty:
		var p models.Property
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		teams := p.Teams
		p.Teams, p.Images = nil, nil
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("could not recreate property: %w", err)
		}
		return relinkTeams(tx, &p, teams)

	case EntityTeam:
		var team models.Team
		if err := json.Unmarshal([]byte(dataJSON), &team); err != nil {
			return err
		}
		team.Members, team.Properties = nil, nil
		return tx.Create(&team).Error
	}
	return fmt.Errorf("unknown entity type: %s", entityType)
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case EntityProperty:
		var p models.Property
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		fields := p.ScalarColumns()
		fields["number"] = p.Number
		target := models.Property{ID: entityID}
		if err := tx.Model(&target).Updates(fields).Error; err != nil {
			return fmt.Errorf("could not restore property: %w", err)
		}
		if err := tx.Model(&target).Association("Teams").Clear(); err != nil {
			return fmt.Errorf("could not unlink teams: %w", err)
		}
		return relinkTeams(tx, &target, p.Teams)

	case EntityTeam:
		var team models.Team
		if err := json.Unmarshal([]byte(dataJSON), &team); err != nil {
			return err
		}
		return tx.Model(&models.Team{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        team.Name,
			"description": team.Description,
		}).Error
	}
	return fmt.Errorf("unknown entity type: %s", entityType)
}

func relinkTeams(tx *gorm.DB, p *models.Property, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	var existing []models.Team
	if err := tx.Where("id IN ?", ids).Find(&existing).Error; err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	return tx.Model(p).Association("Teams").Append(existing)
}
