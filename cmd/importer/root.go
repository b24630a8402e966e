package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"techniknet-backend/internal/excel"
	"techniknet-backend/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// errUsage makes the process exit non-zero after the usage text was printed.
var errUsage = errors.New("usage")

var rule = strings.Repeat("=", 50)

type importer struct {
	out    io.Writer
	openDB func() (*gorm.DB, error)
	loc    *time.Location
}

func newRootCmd(imp *importer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importer <excel_file.xlsx> [team_name]",
		Short: "Import properties from an Excel file",
		Long: `Reads the first sheet of an .xlsx file and creates or overwrites one
property per row, matched by the Number column.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				imp.printUsage()
				return errUsage
			}
			team := ""
			if len(args) > 1 {
				team = args[1]
			}
			return imp.run(args[0], team)
		},
	}
	cmd.SetOut(imp.out)
	return cmd
}

// -----------------------------------------------------------------------------
// Usage
// -----------------------------------------------------------------------------

func (imp *importer) printUsage() {
	w := imp.out
	fmt.Fprintln(w, "TechnikNet Excel Import Tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: importer <excel_file.xlsx> [team_name]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  importer data.xlsx")
	fmt.Fprintln(w, "  importer data.xlsx 'Team Alpha'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available teams:")
	imp.printTeams()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Only the 'Number' column is required")
	fmt.Fprintln(w, "  - All other columns are optional (can be empty)")
	fmt.Fprintln(w, "  - Column order doesn't matter, columns are matched by name")
	fmt.Fprintln(w, "  - Use the 'Team' column to assign teams (comma-separated)")
}

func (imp *importer) printTeams() {
	db, err := imp.openDB()
	if err != nil {
		fmt.Fprintf(imp.out, "  (database not reachable: %v)\n", err)
		return
	}
	var teams []models.Team
	if err := db.Order("name").Find(&teams).Error; err != nil {
		fmt.Fprintf(imp.out, "  (could not load teams: %v)\n", err)
		return
	}
	if len(teams) == 0 {
		fmt.Fprintln(imp.out, "  (No teams available)")
		return
	}
	for _, t := range teams {
		fmt.Fprintf(imp.out, "  - %s\n", t.Name)
	}
}

// -----------------------------------------------------------------------------
// Import
// -----------------------------------------------------------------------------

func (imp *importer) run(path, teamName string) error {
	w := imp.out
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "File not found: %s\n", path)
		return nil
	}

	fmt.Fprintf(w, "Reading Excel file: %s\n", path)
	table, err := excel.ReadTableFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	fmt.Fprintf(w, "Found %d rows\n", len(table.Rows))
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(table.Columns, ", "))

	db, err := imp.openDB()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	session := excel.NewSession(db, excel.Options{
		Mode:            excel.ModeAlwaysOverwrite,
		DefaultTeamName: teamName,
		Location:        imp.loc,
	})
	if teamName != "" {
		if t := session.DefaultTeam(); t != nil {
			fmt.Fprintf(w, "Will assign properties to team: %s\n", t.Name)
		} else {
			fmt.Fprintf(w, "Team '%s' not found. Properties will be created without team assignment.\n", teamName)
		}
	}

	sum := session.Run(table, imp.printRow)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Successfully imported: %d\n", sum.Created+sum.Updated)
	fmt.Fprintf(w, "Errors: %d\n", sum.Errored)
	fmt.Fprintln(w, rule)
	return nil
}

func (imp *importer) printRow(r excel.RowResult) {
	w := imp.out
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warn)
	}

	switch r.Outcome {
	case excel.OutcomeCreated, excel.OutcomeUpdated:
		action := "Created"
		if r.Outcome == excel.OutcomeUpdated {
			action = "Updated"
		}
		teams := ""
		if len(r.TeamsAssigned) > 0 {
			teams = fmt.Sprintf(" (teams: %s)", strings.Join(r.TeamsAssigned, ", "))
		}
		fmt.Fprintf(w, "OK   Row %d: %s property '%s'%s\n", r.RowNumber, action, r.Number, teams)
	case excel.OutcomeSkipped:
		fmt.Fprintf(w, "SKIP Row %d: property '%s' already exists\n", r.RowNumber, r.Number)
	default:
		for _, line := range r.Diagnostics()[len(r.Warnings):] {
			fmt.Fprintf(w, "ERR  %s\n", line)
		}
	}
}
