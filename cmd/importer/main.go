// Command importer loads a spreadsheet of properties straight into the database.
//
//	importer <excel_file.xlsx> [team_name]
//
// Existing properties are always overwritten. The optional team is assigned to
// newly created rows that have no Team cell.
package main

import (
	"fmt"
	"os"

	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/logger"

	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadForTool()
	if err := logger.Init(cfg.LogLevel, cfg.LogProduction); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	imp := &importer{
		out: os.Stdout,
		openDB: func() (*gorm.DB, error) {
			return database.Open(cfg.DatabaseDSN)
		},
		loc: cfg.Location(),
	}

	if err := newRootCmd(imp).Execute(); err != nil {
		if err != errUsage {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
