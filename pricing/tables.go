package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrentFinancialYear is the financial year of DefaultRateTable.
const CurrentFinancialYear = "2025-26"

// RateTable is the set of published SDA prices for one financial year.
// Amounts are annual dollars before the location factor.
type RateTable struct {
	FinancialYear           string
	BaseRates               map[string]decimal.Decimal // key: RateKey(buildingType, designCategory)
	OOASupplement           decimal.Decimal
	BreakoutRoomSupplement  decimal.Decimal
	FireSprinklerSupplement decimal.Decimal
}

// RateKey builds the "buildingType|designCategory" lookup key.
func RateKey(bt BuildingType, dc DesignCategory) string {
	return string(bt) + "|" + string(dc)
}

// BaseRate looks up the base annual rate for a dwelling configuration.
func (t *RateTable) BaseRate(bt BuildingType, dc DesignCategory) (decimal.Decimal, error) {
	rate, ok := t.BaseRates[RateKey(bt, dc)]
	if !ok {
		return decimal.Zero, &RateNotFoundError{
			FinancialYear:  t.FinancialYear,
			BuildingType:   bt,
			DesignCategory: dc,
		}
	}
	return rate, nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultRateTable returns the 2025-26 SDA pricing arrangements.
// Basic has no rates: it is not available for new builds.
func DefaultRateTable() *RateTable {
	return &RateTable{
		FinancialYear: CurrentFinancialYear,
		BaseRates: map[string]decimal.Decimal{
			RateKey(House2Residents, ImprovedLiveability): d(26380),
			RateKey(House2Residents, FullyAccessible):     d(41400),
			RateKey(House2Residents, Robust):              d(46170),
			RateKey(House2Residents, HighPhysicalSupport): d(56880),

			RateKey(House3Residents, ImprovedLiveability): d(19650),
			RateKey(House3Residents, FullyAccessible):     d(30140),
			RateKey(House3Residents, Robust):              d(33630),
			RateKey(House3Residents, HighPhysicalSupport): d(40660),

			RateKey(Villa1Resident, ImprovedLiveability): d(36950),
			RateKey(Villa1Resident, FullyAccessible):     d(54530),
			RateKey(Villa1Resident, Robust):              d(60810),
			RateKey(Villa1Resident, HighPhysicalSupport): d(73460),

			RateKey(Villa2Residents, ImprovedLiveability): d(22400),
			RateKey(Villa2Residents, FullyAccessible):     d(34670),
			RateKey(Villa2Residents, Robust):              d(38680),
			RateKey(Villa2Residents, HighPhysicalSupport): d(47210),
		},
		OOASupplement:           d(11600),
		BreakoutRoomSupplement:  d(3680),
		FireSprinklerSupplement: d(2930),
	}
}

// =============================================================================
// MRRC RATES
// =============================================================================

// Published fortnightly income-support rates used for MRRC. DSS revises these
// around March and September each year.
var (
	MRRCEffectiveFrom        = "2025-03-20"
	DefaultDSPBasicFortnight = decimal.RequireFromString("1116.30")
	DefaultPensionSupp       = decimal.RequireFromString("83.20")
	DefaultCRAMaxFortnight   = decimal.RequireFromString("188.20")
)

// DefaultMRRCInput returns the currently published MRRC rates.
func DefaultMRRCInput() MRRCInput {
	return MRRCInput{
		DSPBasicFortnight:    DefaultDSPBasicFortnight,
		PensionSuppFortnight: DefaultPensionSupp,
		CRAMaxFortnight:      DefaultCRAMaxFortnight,
	}
}

// =============================================================================
// METADATA
// =============================================================================

var buildingTypes = map[BuildingType]BuildingTypeInfo{
	House2Residents: {Label: "House, 2 residents", MaxResidents: 2},
	House3Residents: {Label: "House, 3 residents", MaxResidents: 3},
	Villa1Resident:  {Label: "Villa/Duplex/Townhouse, 1 resident", MaxResidents: 1},
	Villa2Residents: {Label: "Villa/Duplex/Townhouse, 2 residents", MaxResidents: 2},
}

var designCategories = map[DesignCategory]DesignCategoryInfo{
	Basic: {
		Label:       "Basic",
		Description: "Housing without specialist design features but with room for carer",
	},
	ImprovedLiveability: {
		Label:       "Improved Liveability",
		Description: "Reasonable level of physical access and enhanced provision for sensory, intellectual or cognitive impairment",
	},
	FullyAccessible: {
		Label:       "Fully Accessible",
		Description: "High level of physical access features for significant physical impairment",
	},
	Robust: {
		Label:               "Robust",
		Description:         "Resilient design with high physical access provisions using durable materials",
		BreakoutRoomAllowed: true,
	},
	HighPhysicalSupport: {
		Label:       "High Physical Support",
		Description: "Enhanced physical access for significant physical impairment with very high support needs",
	},
}

// LookupBuildingType returns metadata for bt.
func LookupBuildingType(bt BuildingType) (BuildingTypeInfo, bool) {
	info, ok := buildingTypes[bt]
	return info, ok
}

// LookupDesignCategory returns metadata for dc.
func LookupDesignCategory(dc DesignCategory) (DesignCategoryInfo, bool) {
	info, ok := designCategories[dc]
	return info, ok
}

// LocationFactor is a regional multiplier applied to SDA base rates.
type LocationFactor struct {
	Region string          `json:"region"`
	State  string          `json:"state"`
	Factor decimal.Decimal `json:"factor"`
}

// Development subset of the 2025-26 location factors. The full published
// sheet is loaded into the database.
var locationFactors = []LocationFactor{
	{"Townsville", "QLD", decimal.RequireFromString("1.08")},
	{"Brisbane", "QLD", decimal.RequireFromString("1.04")},
	{"Gold Coast", "QLD", decimal.RequireFromString("1.03")},
	{"Cairns", "QLD", decimal.RequireFromString("1.12")},
	{"Sydney", "NSW", decimal.RequireFromString("1.14")},
	{"Melbourne", "VIC", decimal.RequireFromString("1.06")},
	{"Adelaide", "SA", decimal.RequireFromString("1.00")},
	{"Perth", "WA", decimal.RequireFromString("1.09")},
	{"Darwin", "NT", decimal.RequireFromString("1.29")},
	{"Hobart", "TAS", decimal.RequireFromString("1.02")},
}

// LookupLocationFactor finds a region case-insensitively.
func LookupLocationFactor(region string) (LocationFactor, bool) {
	for _, lf := range locationFactors {
		if strings.EqualFold(lf.Region, strings.TrimSpace(region)) {
			return lf, true
		}
	}
	return LocationFactor{}, false
}

// LocationFactors returns all known regions sorted by name.
func LocationFactors() []LocationFactor {
	out := make([]LocationFactor, len(locationFactors))
	copy(out, locationFactors)
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}
