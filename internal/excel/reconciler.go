package excel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"techniknet-backend/internal/models"

	"gorm.io/gorm"
)

// Mode decides what happens when a row's number already exists.
type Mode int

const (
	// ModeAlwaysOverwrite upserts every row (standalone tool).
	ModeAlwaysOverwrite Mode = iota
	// ModeForceReplaceGated skips existing numbers unless force replace is on.
	ModeForceReplaceGated
)

type Outcome int

const (
	OutcomeRejected Outcome = iota // missing number
	OutcomeCreated
	OutcomeUpdated
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// TeamDecisionKind tags how a row's team links are treated.
type TeamDecisionKind int

const (
	TeamsNoChange TeamDecisionKind = iota
	TeamsExplicit
	TeamsApplyDefault
)

// TeamDecision is the per-row team rule. An explicit Team cell always wins; the
// default team only applies to newly created properties without one.
type TeamDecision struct {
	Kind  TeamDecisionKind
	Names []string // TeamsExplicit only
}

// DecideTeams derives the team decision from the raw Team cell.
func DecideTeams(cell string, created, hasDefault bool) TeamDecision {
	if names := SplitTeamNames(cell); len(names) > 0 {
		return TeamDecision{Kind: TeamsExplicit, Names: names}
	}
	if created && hasDefault {
		return TeamDecision{Kind: TeamsApplyDefault}
	}
	return TeamDecision{Kind: TeamsNoChange}
}

// SplitTeamNames splits a comma separated list, trimming names and dropping
// empty and repeated entries.
func SplitTeamNames(s string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// RowResult is what one row contributed to the session.
type RowResult struct {
	RowNumber     int
	Number        string
	Outcome       Outcome
	TeamsAssigned []string
	Warnings      []string // non-fatal, row still committed
	Err           error
}

// Diagnostics returns the user facing lines for this row, warnings first.
func (r RowResult) Diagnostics() []string {
	lines := append([]string(nil), r.Warnings...)
	switch r.Outcome {
	case OutcomeRejected:
		lines = append(lines, fmt.Sprintf("Row %d: Missing '%s' field (required)", r.RowNumber, ColNumber))
	case OutcomeFailed:
		number := r.Number
		if number == "" {
			number = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("Row %d (Number: %s): %v", r.RowNumber, number, r.Err))
	}
	return lines
}

// Reconciler turns one spreadsheet row into a reject, create, update or skip.
type Reconciler struct {
	db           *gorm.DB
	mode         Mode
	forceReplace bool
	defaultTeam  *models.Team
	loc          *time.Location
}

func NewReconciler(db *gorm.DB, mode Mode, forceReplace bool, defaultTeam *models.Team, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{db: db, mode: mode, forceReplace: forceReplace, defaultTeam: defaultTeam, loc: loc}
}

// Reconcile processes one row. Errors never escape: they are reported in the
// result and the row's transaction is rolled back, earlier rows stay committed.
func (r *Reconciler) Reconcile(t *Table, row Row) (res RowResult) {
	res.RowNumber = row.Number

	defer func() {
		if p := recover(); p != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic: %v", p)
			res.TeamsAssigned = nil
		}
	}()

	res.Number = String(t.Lookup(row, ColNumber, ""))
	if res.Number == "" {
		res.Outcome = OutcomeRejected
		return res
	}

	fields := BuildProperty(t, row, r.loc)
	fields.Number = res.Number
	teamCell := String(t.Lookup(row, ColTeam, ""))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Property
		err := tx.Where("number = ?", res.Number).First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup property: %w", err)
		}

		if found && r.mode == ModeForceReplaceGated && !r.forceReplace {
			res.Outcome = OutcomeSkipped
			return nil
		}

		target := &existing
		if found {
			if err := tx.Model(&existing).Updates(fields.ScalarColumns()).Error; err != nil {
				return fmt.Errorf("update property: %w", err)
			}
			res.Outcome = OutcomeUpdated
		} else {
			target = &fields
			if err := tx.Create(target).Error; err != nil {
				return fmt.Errorf("create property: %w", err)
			}
			res.Outcome = OutcomeCreated
		}

		decision := DecideTeams(teamCell, !found, r.defaultTeam != nil)
		return r.applyTeams(tx, target, decision, found, &res)
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		res.TeamsAssigned = nil
	}
	return res
}

func (r *Reconciler) applyTeams(tx *gorm.DB, p *models.Property, d TeamDecision, isUpdate bool, res *RowResult) error {
	switch d.Kind {
	case TeamsExplicit:
		if isUpdate {
			if err := tx.Model(p).Association("Teams").Clear(); err != nil {
				return fmt.Errorf("clear teams: %w", err)
			}
		}
		for _, name := range d.Names {
			var team models.Team
			err := tx.Where("name = ?", name).First(&team).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("Row %d: Team '%s' not found for property %s", res.RowNumber, name, res.Number))
				continue
			}
			if err != nil {
				return fmt.Errorf("lookup team %q: %w", name, err)
			}
			if err := tx.Model(p).Association("Teams").Append(&team); err != nil {
				return fmt.Errorf("link team %q: %w", name, err)
			}
			res.TeamsAssigned = append(res.TeamsAssigned, team.Name)
		}
	case TeamsApplyDefault:
		if err := tx.Model(p).Association("Teams").Append(r.defaultTeam); err != nil {
			return fmt.Errorf("link default team: %w", err)
		}
		res.TeamsAssigned = append(res.TeamsAssigned, r.defaultTeam.Name)
	}
	return nil
}

// BuildProperty coerces every mapped column of row. Missing columns keep their
// defaults; Number and team links are not touched.
func BuildProperty(t *Table, row Row, loc *time.Location) models.Property {
	str := func(col string) string { return String(t.Lookup(row, col, "")) }
	num := func(col string) int { return Int(t.Lookup(row, col, nil), 0) }
	date := func(col string) *time.Time { return Date(t.Lookup(row, col, nil), loc) }

	return models.Property{
		AddressID:        str(ColAddressID),
		Village:          str(ColVillage),
		Street:           str(ColStreet),
		HouseNumber:      str(ColHouseNumber),
		HouseNumberAffix: str(ColHouseNumberAffix),
		OwnerEmail:       str(ColOwnerEmail),
		OwnerName:        str(ColOwnerName),
		OwnerSurname:     str(ColOwnerSurname),
		OwnerPhone1:      str(ColOwnerPhone1),
		OwnerPhone2:      str(ColOwnerPhone2),
		PopCode:          str(ColPopCode),
		GebauteUnits:     OptionalInt(t.Lookup(row, ColGebauteUnits, nil)),
		HBG:              str(ColHBG),
		HBGTermin:        date(ColHBGTermin),
		AusbauTermin:     date(ColAusbauTermin),
		KL15m:            num(ColKL15M),
		KL20m:            num(ColKL20M),
		KL30m:            num(ColKL30M),
		KL50m:            num(ColKL50M),
		KL80m:            num(ColKL80M),
		KL100m:           num(ColKL100M),
		Keller:           str(ColKeller),
		Huep:             str(ColHuep),
		Spleissen:        str(ColSpleissen),
		OhneInfra:        num(ColOhneInfra),
		MitInfra:         num(ColMitInfra),
		Status:           Status(t.Lookup(row, ColStatus, nil)),
		Comments:         str(ColComments),
	}
}
