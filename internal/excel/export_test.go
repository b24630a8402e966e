package excel

import (
	"bytes"
	"sort"
	"strings"
	"testing"
	"time"

	"techniknet-backend/internal/database/dbtest"
	"techniknet-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openExport(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestExport_Template(t *testing.T) {
	data, err := Export([]models.Property{{Number: "ignored"}}, ExportOptions{Template: true})
	require.NoError(t, err)

	rows := openExport(t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, Headers, rows[0])
	assert.Len(t, Headers, 30)
}

func TestExport_Rows(t *testing.T) {
	units := 3
	termin := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	props := []models.Property{{
		Number:       "P1",
		Teams:        []models.Team{{Name: "Beta"}, {Name: "Alpha"}},
		AddressID:    "A-77",
		Village:      "Nord",
		GebauteUnits: &units,
		AusbauTermin: &termin,
		KL50m:        2,
		MitInfra:     1,
		Status:       models.StatusAusbauTerminiert,
	}, {
		Number: "P2",
	}}

	data, err := Export(props, ExportOptions{Location: time.UTC})
	require.NoError(t, err)

	rows := openExport(t, data)
	require.Len(t, rows, 3)

	col := func(row []string, name string) string {
		for i, h := range Headers {
			if h == name && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	first := rows[1]
	assert.Equal(t, "P1", col(first, ColNumber))
	teams := strings.Split(col(first, ColTeam), ", ")
	sort.Strings(teams)
	assert.Equal(t, []string{"Alpha", "Beta"}, teams)
	assert.Equal(t, "A-77", col(first, ColAddressID), "address id has its own column")
	assert.Equal(t, "3", col(first, ColGebauteUnits))
	assert.Equal(t, "2024-05-01 09:30", col(first, ColAusbauTermin))
	assert.Equal(t, "", col(first, ColHBGTermin))
	assert.Equal(t, "2", col(first, ColKL50M))
	assert.Equal(t, "0", col(first, ColKL15M))
	assert.Equal(t, "1", col(first, ColMitInfra))
	assert.Equal(t, "0", col(first, ColOhneInfra))
	assert.Equal(t, "Ausbau terminiert", col(first, ColStatus))

	second := rows[2]
	assert.Equal(t, "P2", col(second, ColNumber))
	assert.Equal(t, "", col(second, ColGebauteUnits))
	assert.Equal(t, "", col(second, ColStatus))
}

func TestExport_Layout(t *testing.T) {
	data, err := Export([]models.Property{{Number: "P1", Comments: strings.Repeat("x", 80)}}, ExportOptions{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	panes, err := f.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)

	w, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len(ColNumber)+2), w)

	last, err := excelize.ColumnNumberToName(len(Headers))
	require.NoError(t, err)
	w, err = f.GetColWidth(SheetName, last)
	require.NoError(t, err)
	assert.Equal(t, float64(maxColumnWidth), w)
}

func TestExport_RoundTrip(t *testing.T) {
	db := dbtest.Open(t)
	seedTeams(t, db, "Alpha")

	termin := time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)
	units := 6
	var alpha models.Team
	require.NoError(t, db.Where("name = ?", "Alpha").First(&alpha).Error)
	original := models.Property{
		Number: "RT-1", Teams: []models.Team{alpha}, Village: "Nord", Street: "Ring",
		OwnerPhone1: "0151 234", GebauteUnits: &units, HBG: models.FlagYes, HBGTermin: &termin,
		KL80m: 1, Keller: models.FlagNo, OhneInfra: 2, Status: models.StatusBezahlt, Comments: "ok",
	}
	require.NoError(t, db.Create(&original).Error)

	var props []models.Property
	require.NoError(t, db.Preload("Teams").Find(&props).Error)
	data, err := Export(props, ExportOptions{Location: time.UTC})
	require.NoError(t, err)

	require.NoError(t, db.Model(&original).Association("Teams").Clear())
	require.NoError(t, db.Delete(&original).Error)

	tbl, err := ReadTable(bytes.NewReader(data))
	require.NoError(t, err)
	sum := runImport(db, Options{Mode: ModeAlwaysOverwrite}, tbl)
	require.Equal(t, 1, sum.Created, sum.Diagnostics)

	got := loadProperty(t, db, "RT-1")
	assert.Equal(t, "Alpha", got.TeamNames())
	want := original.ScalarColumns()
	have := got.ScalarColumns()
	for _, k := range []string{"village", "street", "owner_phone_1", "hbg", "kl_80m", "keller", "ohne_infra", "status", "comments"} {
		assert.Equal(t, want[k], have[k], k)
	}
	require.NotNil(t, got.GebauteUnits)
	assert.Equal(t, units, *got.GebauteUnits)
	require.NotNil(t, got.HBGTermin)
	assert.True(t, termin.Equal(*got.HBGTermin), "got %s", got.HBGTermin)
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "techniknet_template.xlsx", FileName(true, now))
	assert.Equal(t, "techniknet_export_20240203_040506.xlsx", FileName(false, now))
}
