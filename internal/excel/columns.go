package excel

// Spreadsheet column names. Import reads them by name, so order does not matter
// and any of them except ColNumber may be missing.
const (
	ColNumber           = "Number"
	ColTeam             = "Team"
	ColAddressID        = "Address ID"
	ColVillage          = "Village"
	ColStreet           = "Street"
	ColHouseNumber      = "House number"
	ColHouseNumberAffix = "House number affix"
	ColOwnerEmail       = "Owner email"
	ColOwnerName        = "Owner name"
	ColOwnerSurname     = "Owner surname"
	ColOwnerPhone1      = "Owner phone 1"
	ColOwnerPhone2      = "Owner phone 2"
	ColPopCode          = "PoP code"
	ColGebauteUnits     = "Gebaute Units"
	ColHBG              = "HBG"
	ColHBGTermin        = "HBG Termin"
	ColAusbauTermin     = "Ausbau Termin"
	ColKL15M            = "K.L 15M"
	ColKL20M            = "K.L 20M"
	ColKL30M            = "K.L 30M"
	ColKL50M            = "K.L 50M"
	ColKL80M            = "K.L 80M"
	ColKL100M           = "K.L 100M"
	ColKeller           = "keller"
	ColHuep             = "HÜP"
	ColSpleissen        = "spleissen"
	ColOhneInfra        = "ohne Infra"
	ColMitInfra         = "mit Infra"
	ColStatus           = "Status"
	ColComments         = "Comments"
)

// Headers is the fixed export column order. Import accepts the same names.
var Headers = []string{
	ColNumber, ColTeam, ColAddressID, ColVillage, ColStreet, ColHouseNumber, ColHouseNumberAffix,
	ColOwnerEmail, ColOwnerName, ColOwnerSurname, ColOwnerPhone1, ColOwnerPhone2,
	ColPopCode, ColGebauteUnits, ColHBG, ColHBGTermin, ColAusbauTermin,
	ColKL15M, ColKL20M, ColKL30M, ColKL50M, ColKL80M, ColKL100M,
	ColKeller, ColHuep, ColSpleissen, ColOhneInfra, ColMitInfra, ColStatus, ColComments,
}
