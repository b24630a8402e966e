package excel

import (
	"errors"
	"fmt"
	"time"

	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configure one import session.
type Options struct {
	Mode         Mode
	ForceReplace bool

	// Default team, by name (tool) or by id (HTTP). Unresolvable means none.
	DefaultTeamName string
	DefaultTeamID   uint

	Location *time.Location
}

// Summary aggregates the row results of one session. Counters are mutually
// exclusive per row.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`

	Diagnostics []string    `json:"diagnostics"`
	Rows        []RowResult `json:"-"`

	DefaultTeam string `json:"default_team,omitempty"`
}

// NothingImported is true when no row was created, updated or failed.
func (s *Summary) NothingImported() bool {
	return s.Created == 0 && s.Updated == 0 && s.Errored == 0
}

// AllSkipped is true when every processed row already existed.
func (s *Summary) AllSkipped() bool {
	return s.NothingImported() && s.Skipped > 0
}

func (s *Summary) add(r RowResult) {
	switch r.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeRejected, OutcomeFailed:
		s.Errored++
	}
	s.Diagnostics = append(s.Diagnostics, r.Diagnostics()...)
	s.Rows = append(s.Rows, r)
}

// Session drives the reconciler over every row of a table.
type Session struct {
	db   *gorm.DB
	opts Options
	log  *zap.Logger

	defaultTeam *models.Team
}

// NewSession resolves the default team once. A missing default team is logged
// and the session continues without one.
func NewSession(db *gorm.DB, opts Options) *Session {
	s := &Session{db: db, opts: opts, log: logger.L.Named("import")}
	if opts.Location == nil {
		s.opts.Location = time.Local
	}
	s.defaultTeam = s.resolveDefaultTeam()
	return s
}

// DefaultTeam is the resolved default team or nil.
func (s *Session) DefaultTeam() *models.Team {
	return s.defaultTeam
}

func (s *Session) resolveDefaultTeam() *models.Team {
	var (
		team models.Team
		err  error
		ref  string
	)
	switch {
	case s.opts.DefaultTeamID != 0:
		ref = fmt.Sprintf("id=%d", s.opts.DefaultTeamID)
		err = s.db.First(&team, "id = ?", s.opts.DefaultTeamID).Error
	case s.opts.DefaultTeamName != "":
		ref = s.opts.DefaultTeamName
		err = s.db.Where("name = ?", s.opts.DefaultTeamName).First(&team).Error
	default:
		return nil
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("default team not found, importing without team assignment", zap.String("team", ref))
		} else {
			s.log.Error("default team lookup failed", zap.String("team", ref), zap.Error(err))
		}
		return nil
	}
	return &team
}

// Run processes every row and never stops early. onRow, when set, is called
// after each row.
func (s *Session) Run(t *Table, onRow func(RowResult)) *Summary {
	sum := &Summary{Diagnostics: []string{}}
	if s.defaultTeam != nil {
		sum.DefaultTeam = s.defaultTeam.Name
	}

	rec := NewReconciler(s.db, s.opts.Mode, s.opts.ForceReplace, s.defaultTeam, s.opts.Location)

	s.log.Info("import started",
		zap.Int("rows", len(t.Rows)),
		zap.Strings("columns", t.Columns),
		zap.Bool("force_replace", s.opts.ForceReplace))

	for _, row := range t.Rows {
		res := rec.Reconcile(t, row)
		sum.add(res)
		s.logRow(res)
		if onRow != nil {
			onRow(res)
		}
	}

	s.log.Info("import finished",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errored", sum.Errored))
	return sum
}

func (s *Session) logRow(r RowResult) {
	fields := []zap.Field{
		zap.Int("row", r.RowNumber),
		zap.String("number", r.Number),
		zap.Stringer("outcome", r.Outcome),
	}
	if len(r.TeamsAssigned) > 0 {
		fields = append(fields, zap.Strings("teams", r.TeamsAssigned))
	}
	for _, w := range r.Warnings {
		s.log.Warn(w)
	}
	switch r.Outcome {
	case OutcomeFailed:
		s.log.Warn("row failed", append(fields, zap.Error(r.Err))...)
	case OutcomeRejected:
		s.log.Warn("row rejected", fields...)
	default:
		s.log.Debug("row processed", fields...)
	}
}

// Message is a flash style line for the interactive import.
type Message struct {
	Level string `json:"level"` // success, info, warning, error
	Text  string `json:"text"`
}

// Messages renders the summary the way the import page reports it, showing at
// most limit diagnostics. limit <= 0 shows all of them.
func (s *Summary) Messages(limit int) []Message {
	var out []Message
	if s.Created > 0 {
		out = append(out, Message{"success", fmt.Sprintf("Created %d new properties", s.Created)})
	}
	if s.Updated > 0 {
		out = append(out, Message{"success", fmt.Sprintf("Updated %d existing properties", s.Updated)})
	}
	if s.Skipped > 0 {
		out = append(out, Message{"info", fmt.Sprintf(`Skipped %d existing properties (check "Force Replace" to update them)`, s.Skipped)})
	}

	if s.Errored > 0 || len(s.Diagnostics) > 0 {
		if s.Errored > 0 {
			out = append(out, Message{"warning", fmt.Sprintf("%d rows had errors:", s.Errored)})
		}
		shown := s.Diagnostics
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, d := range shown {
			out = append(out, Message{"error", d})
		}
		if rest := len(s.Diagnostics) - len(shown); rest > 0 {
			out = append(out, Message{"error", fmt.Sprintf("... and %d more errors (check server logs)", rest)})
		}
	}

	switch {
	case s.AllSkipped():
		out = append(out, Message{"warning", `No properties were imported. All properties already exist. Check "Force Replace" to update them.`})
	case s.NothingImported():
		out = append(out, Message{"warning", "No valid data found in the Excel file."})
	}
	return out
}
