package models

import (
	"strings"
	"time"
)

// Property is one build-out address. Number is the business key used by the
// spreadsheet import; every other field is optional.
type Property struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Number string `gorm:"size:50;uniqueIndex;not null" json:"number"`

	Teams  []Team          `gorm:"many2many:property_teams;constraint:OnDelete:CASCADE" json:"teams,omitempty"`
	Images []PropertyImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`

	AddressID        string `gorm:"size:50" json:"address_id"`
	Village          string `gorm:"size:100" json:"village"`
	Street           string `gorm:"size:200" json:"street"`
	HouseNumber      string `gorm:"size:20" json:"house_number"`
	HouseNumberAffix string `gorm:"size:10" json:"house_number_affix"`

	OwnerEmail   string `gorm:"size:254" json:"owner_email"`
	OwnerName    string `gorm:"size:100" json:"owner_name"`
	OwnerSurname string `gorm:"size:100" json:"owner_surname"`
	OwnerPhone1  string `gorm:"column:owner_phone_1;size:20" json:"owner_phone_1"`
	OwnerPhone2  string `gorm:"column:owner_phone_2;size:20" json:"owner_phone_2"`

	PopCode      string     `gorm:"size:20" json:"pop_code"`
	GebauteUnits *int       `json:"gebaute_units"`
	HBG          string     `gorm:"column:hbg;size:50" json:"hbg"`
	HBGTermin    *time.Time `gorm:"column:hbg_termin" json:"hbg_termin"`
	AusbauTermin *time.Time `json:"ausbau_termin"`

	KL15m  int `gorm:"column:kl_15m;not null;default:0" json:"kl_15m"`
	KL20m  int `gorm:"column:kl_20m;not null;default:0" json:"kl_20m"`
	KL30m  int `gorm:"column:kl_30m;not null;default:0" json:"kl_30m"`
	KL50m  int `gorm:"column:kl_50m;not null;default:0" json:"kl_50m"`
	KL80m  int `gorm:"column:kl_80m;not null;default:0" json:"kl_80m"`
	KL100m int `gorm:"column:kl_100m;not null;default:0" json:"kl_100m"`

	Keller    string `gorm:"size:10" json:"keller"`
	Huep      string `gorm:"size:10" json:"huep"`
	Spleissen string `gorm:"size:10" json:"spleissen"`

	OhneInfra int `gorm:"not null;default:0" json:"ohne_infra"`
	MitInfra  int `gorm:"not null;default:0" json:"mit_infra"`

	Comments string `gorm:"type:text" json:"comments"`
	Status   string `gorm:"size:50;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Yes/no flag values used by hbg, keller, huep and spleissen.
const (
	FlagYes = "Ja"
	FlagNo  = "Nein"
)

const (
	StatusNone                  = ""
	StatusKlarungen             = "klarungen"
	StatusAuskundung            = "auskundung"
	StatusZustimmungEigentuemer = "zustimmung_eigentuemer"
	StatusBereitZurUmsetzung    = "bereit_zur_umsetzung"
	StatusAusbauTerminiert      = "ausbau_terminiert"
	StatusAusbauAbgeschlossen   = "ausbau_abgeschlossen"
	StatusBezahlt               = "bezahlt"
	StatusStorniert             = "storniert"
)

type StatusChoice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// StatusChoices is the closed status set in display order.
var StatusChoices = []StatusChoice{
	{StatusNone, "---------"},
	{StatusKlarungen, "Klarungen"},
	{StatusAuskundung, "Auskundung terminiert"},
	{StatusZustimmungEigentuemer, "Zustimmung des Eigentümers"},
	{StatusBereitZurUmsetzung, "Bereit zur Umsetzung"},
	{StatusAusbauTerminiert, "Ausbau terminiert"},
	{StatusAusbauAbgeschlossen, "Ausbau Abgeschlossen"},
	{StatusBezahlt, "Bezahlt"},
	{StatusStorniert, "Storniert"},
}

// CompletedStatuses are terminal; such properties leave the main list and only
// superusers may change them.
var CompletedStatuses = []string{StatusAusbauAbgeschlossen, StatusBezahlt}

func IsCompletedStatus(status string) bool {
	return status == StatusAusbauAbgeschlossen || status == StatusBezahlt
}

func IsKnownStatus(status string) bool {
	for _, c := range StatusChoices {
		if c.Code == status {
			return true
		}
	}
	return false
}

// StatusLabel returns the human readable label, or the raw value for unknown codes.
func StatusLabel(status string) string {
	if status == StatusNone {
		return ""
	}
	for _, c := range StatusChoices {
		if c.Code == status {
			return c.Label
		}
	}
	return status
}

// ParseStatus maps a status code or its label (case-insensitive) to the code.
// Unknown text is returned trimmed.
func ParseStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusNone
	}
	for _, c := range StatusChoices {
		if c.Code == StatusNone {
			continue
		}
		if strings.EqualFold(s, c.Code) || strings.EqualFold(s, c.Label) {
			return c.Code
		}
	}
	return s
}

func (p *Property) IsCompleted() bool {
	return IsCompletedStatus(p.Status)
}

// CanUserEdit reports whether regular team members may still edit the property.
func (p *Property) CanUserEdit() bool {
	return !p.IsCompleted()
}

// TeamNames joins the loaded team names with ", ".
func (p *Property) TeamNames() string {
	names := make([]string, 0, len(p.Teams))
	for _, t := range p.Teams {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// ScalarColumns lists every column except the primary key, the number and the
// timestamps, keyed by column name. Used for full overwrites.
func (p *Property) ScalarColumns() map[string]interface{} {
	return map[string]interface{}{
		"address_id":         p.AddressID,
		"village":            p.Village,
		"street":             p.Street,
		"house_number":       p.HouseNumber,
		"house_number_affix": p.HouseNumberAffix,
		"owner_email":        p.OwnerEmail,
		"owner_name":         p.OwnerName,
		"owner_surname":      p.OwnerSurname,
		"owner_phone_1":      p.OwnerPhone1,
		"owner_phone_2":      p.OwnerPhone2,
		"pop_code":           p.PopCode,
		"gebaute_units":      p.GebauteUnits,
		"hbg":                p.HBG,
		"hbg_termin":         p.HBGTermin,
		"ausbau_termin":      p.AusbauTermin,
		"kl_15m":             p.KL15m,
		"kl_20m":             p.KL20m,
		"kl_30m":             p.KL30m,
		"kl_50m":             p.KL50m,
		"kl_80m":             p.KL80m,
		"kl_100m":            p.KL100m,
		"keller":             p.Keller,
		"huep":               p.Huep,
		"spleissen":          p.Spleissen,
		"ohne_infra":         p.OhneInfra,
		"mit_infra":          p.MitInfra,
		"status":             p.Status,
		"comments":           p.Comments,
	}
}
