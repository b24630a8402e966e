package audit

import (
	"testing"

	"techniknet-backend/internal/database/dbtest"
	"techniknet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, models.Team, models.Team) {
	t.Helper()
	db := dbtest.Open(t)
	dbtest.UseAsGlobal(t, db)

	alpha, beta := models.Team{Name: "Alpha"}, models.Team{Name: "Beta"}
	require.NoError(t, db.Create(&alpha).Error)
	require.NoError(t, db.Create(&beta).Error)
	return db, alpha, beta
}

func loadProperty(t *testing.T, db *gorm.DB, id uint) models.Property {
	t.Helper()
	var p models.Property
	require.NoError(t, db.Preload("Teams").First(&p, id).Error)
	return p
}

func lastLog(t *testing.T, db *gorm.DB) models.AuditLog {
	t.Helper()
	var log models.AuditLog
	require.NoError(t, db.Order("id DESC").First(&log).Error)
	return log
}

func TestUndoCreate(t *testing.T) {
	db, alpha, _ := setup(t)
	p := models.Property{Number: "P1", Teams: []models.Team{alpha}}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, WriteLog(LogOptions{
		UserID: 1, UserName: "root", EntityType: EntityProperty, EntityID: p.ID,
		Action: models.AuditActionCreate, Description: "Created property P1", After: p,
	}))
	created := lastLog(t, db)
	assert.Equal(t, "null", created.BeforeData)

	require.NoError(t, UndoLog(created.ID, 1, "root"))

	var count int64
	require.NoError(t, db.Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Table("property_teams").Count(&count).Error)
	assert.Zero(t, count)

	undo := lastLog(t, db)
	assert.Equal(t, models.AuditActionUndo, undo.Action)
	assert.True(t, undo.UndoEntry)
	assert.Equal(t, "Undone: Created property P1", undo.Description)

	require.NoError(t, db.First(&created, created.ID).Error)
	assert.True(t, created.IsUndone)
	require.NotNil(t, created.UndoneBy)
	assert.Equal(t, uint(1), *created.UndoneBy)

	assert.ErrorIs(t, UndoLog(created.ID, 1, "root"), ErrAlreadyUndone)
	assert.ErrorIs(t, UndoLog(undo.ID, 1, "root"), ErrNotUndoable)
}

func TestUndoUpdate(t *testing.T) {
	db, alpha, beta := setup(t)
	p := models.Property{Number: "P1", Village: "Nord", KL15m: 2, Teams: []models.Team{alpha}}
	require.NoError(t, db.Create(&p).Error)
	before := loadProperty(t, db, p.ID)

	require.NoError(t, db.Model(&p).Updates(map[string]interface{}{"village": "Süd", "kl_15m": 0}).Error)
	require.NoError(t, db.Model(&p).Association("Teams").Replace(&beta))
	require.NoError(t, WriteLog(LogOptions{
		EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionUpdate,
		Before: before, After: loadProperty(t, db, p.ID),
	}))

	require.NoError(t, UndoLog(lastLog(t, db).ID, 1, "root"))

	got := loadProperty(t, db, p.ID)
	assert.Equal(t, "Nord", got.Village)
	assert.Equal(t, 2, got.KL15m)
	assert.Equal(t, "Alpha", got.TeamNames())
}

func TestUndoDelete(t *testing.T) {
	db, alpha, _ := setup(t)
	p := models.Property{Number: "P1", Street: "Ring", Teams: []models.Team{alpha}}
	require.NoError(t, db.Create(&p).Error)
	before := loadProperty(t, db, p.ID)

	require.NoError(t, db.Model(&p).Association("Teams").Clear())
	require.NoError(t, db.Delete(&p).Error)
	require.NoError(t, WriteLog(LogOptions{
		EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionDelete, Before: before,
	}))

	require.NoError(t, UndoLog(lastLog(t, db).ID, 1, "root"))

	got := loadProperty(t, db, p.ID)
	assert.Equal(t, "P1", got.Number)
	assert.Equal(t, "Ring", got.Street)
	assert.Equal(t, "Alpha", got.TeamNames())
}

func TestUndoTeamUpdate(t *testing.T) {
	db, alpha, _ := setup(t)
	before := alpha
	require.NoError(t, db.Model(&alpha).Update("name", "Omega").Error)
	require.NoError(t, WriteLog(LogOptions{
		EntityType: EntityTeam, EntityID: alpha.ID, Action: models.AuditActionUpdate, Before: before, After: alpha,
	}))

	require.NoError(t, UndoLog(lastLog(t, db).ID, 1, "root"))

	var got models.Team
	require.NoError(t, db.First(&got, alpha.ID).Error)
	assert.Equal(t, "Alpha", got.Name)
}

func TestUndoImportIsRejected(t *testing.T) {
	db, _, _ := setup(t)
	require.NoError(t, WriteLog(LogOptions{
		EntityType: EntityPropertyImport, Action: models.AuditActionImport, Description: "Imported 3 rows",
	}))

	assert.ErrorIs(t, UndoLog(lastLog(t, db).ID, 1, "root"), ErrNotUndoable)
}
