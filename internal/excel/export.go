package excel

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"techniknet-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Properties"

	exportDateLayout = "2006-01-02 15:04"
	maxColumnWidth   = 50
	headerFill       = "#366092"
)

// ExportOptions control one export. Template writes the header row only.
type ExportOptions struct {
	Template bool
	Location *time.Location
}

// FileName returns the download name for an export produced at now.
func FileName(template bool, now time.Time) string {
	if template {
		return "techniknet_template.xlsx"
	}
	return fmt.Sprintf("techniknet_export_%s.xlsx", now.Format("20060102_150405"))
}

// Export renders props as an xlsx workbook. Teams must be preloaded.
func Export(props []models.Property, opts ExportOptions) ([]byte, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{headerFill},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	widths := make([]int, len(Headers))
	for i, h := range Headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	if !opts.Template {
		for i := range props {
			values := exportRow(&props[i], loc)
			for j, v := range values {
				if n := utf8.RuneCountInString(fmt.Sprint(v)); v != nil && n > widths[j] {
					widths[j] = n
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// exportRow follows Headers order. Empty values are nil so the cell stays blank.
func exportRow(p *models.Property, loc *time.Location) []interface{} {
	str := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}
	date := func(t *time.Time) interface{} {
		if t == nil {
			return nil
		}
		return t.In(loc).Format(exportDateLayout)
	}
	var units interface{}
	if p.GebauteUnits != nil {
		units = *p.GebauteUnits
	}

	return []interface{}{
		str(p.Number),
		str(p.TeamNames()),
		str(p.AddressID),
		str(p.Village),
		str(p.Street),
		str(p.HouseNumber),
		str(p.HouseNumberAffix),
		str(p.OwnerEmail),
		str(p.OwnerName),
		str(p.OwnerSurname),
		str(p.OwnerPhone1),
		str(p.OwnerPhone2),
		str(p.PopCode),
		units,
		str(p.HBG),
		date(p.HBGTermin),
		date(p.AusbauTermin),
		p.KL15m,
		p.KL20m,
		p.KL30m,
		p.KL50m,
		p.KL80m,
		p.KL100m,
		str(p.Keller),
		str(p.Huep),
		str(p.Spleissen),
		p.OhneInfra,
		p.MitInfra,
		str(models.StatusLabel(p.Status)),
		str(p.Comments),
	}
}
