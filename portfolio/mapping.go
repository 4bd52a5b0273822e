package portfolio

import (
	"slices"

	"pmsync/models"
)

// meterTypes maps local utility types to Portfolio Manager meter types.
var meterTypes = map[models.UtilType]string{
	models.Electric:    "Electric",
	models.NaturalGas:  "Natural Gas",
	models.Water:       "Municipally Supplied Potable Water - Mixed Indoor/Outdoor",
	models.Steam:       "District Steam",
	models.FuelOil2:    "Fuel Oil No 2",
	models.FuelOil4:    "Fuel Oil No 4",
	models.FuelOil56:   "Fuel Oil No 5 or 6",
	models.Diesel:      "Diesel",
	models.OtherEnergy: "Other (Energy)",
}

// meterUnits maps local units to Portfolio Manager units of measure.
var meterUnits = map[string]string{
	"kwh":     "kWh (thousand Watt-hours)",
	"mwh":     "MWh (million Watt-hours)",
	"therms":  "therms",
	"ccf":     "ccf (hundred cubic feet)",
	"cf":      "cf (cubic feet)",
	"mcf":     "Mcf (thousand cubic feet)",
	"kgal":    "kgal (thousand gallons) (US)",
	"gallons": "Gallons (US)",
	"mlb":     "KLbs. (thousand pounds)",
	"kbtu":    "kBtu (thousand Btu)",
	"mmbtu":   "MBtu (million Btu)",
}

// importUnits lists the units accepted on import for each remote meter type.
// Meter types missing from the table are not filtered.
var importUnits = map[string][]string{
	"Electric":                     {"kWh (thousand Watt-hours)", "MWh (million Watt-hours)"},
	"Natural Gas":                  {"therms"},
	"District Steam":               {"KLbs. (thousand pounds)", "kBtu (thousand Btu)"},
	"Fuel Oil No 2":                {"Gallons (US)"},
	"Fuel Oil No 4":                {"Gallons (US)"},
	"Fuel Oil No 5 or 6":           {"Gallons (US)"},
	"Diesel":                       {"Gallons (US)"},
	"Other (Energy)":               {"kBtu (thousand Btu)"},
	waterMeterTypes[0]:             waterUnits,
	waterMeterTypes[1]:             waterUnits,
	waterMeterTypes[2]:             waterUnits,
	"Other - Indoor":               waterUnits,
	"Other - Outdoor":              waterUnits,
	"Other - Mixed Indoor/Outdoor": waterUnits,
}

var waterMeterTypes = []string{
	"Municipally Supplied Potable Water - Mixed Indoor/Outdoor",
	"Municipally Supplied Potable Water - Indoor",
	"Municipally Supplied Potable Water - Outdoor",
}

var waterUnits = []string{"kgal (thousand gallons) (US)", "Gallons (US)", "ccf (hundred cubic feet)", "cf (cubic feet)"}

var (
	utilTypesByMeterType = invert(meterTypes)
	unitsByMeterUnit     = invert(meterUnits)
)

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	inverse := make(map[V]K, len(m))
	for k, v := range m {
		inverse[v] = k
	}
	return inverse
}

// MeterType returns the remote meter type and unit for a utility.
func MeterType(utility *models.Utility) (meterType, unit string) {
	meterType, ok := meterTypes[utility.UtilType]
	if !ok {
		meterType = meterTypes[models.Electric]
	}
	unit, ok = meterUnits[utility.Units]
	if !ok {
		unit = utility.Units
	}
	return meterType, unit
}

// LocalType maps a remote meter type to a utility type; unknown types are electric.
func LocalType(meterType string) models.UtilType {
	if slices.Contains(waterMeterTypes, meterType) {
		return models.Water
	}
	if t, ok := utilTypesByMeterType[meterType]; ok {
		return t
	}
	return models.Electric
}

// LocalUnit maps a remote unit of measure to a local unit, passing unknown units through.
func LocalUnit(unit string) string {
	if u, ok := unitsByMeterUnit[unit]; ok {
		return u
	}
	return unit
}

// UnitAllowed reports whether a remote meter with this type and unit can be imported.
func UnitAllowed(meterType, unit string) bool {
	allowed, ok := importUnits[meterType]
	if !ok {
		return true
	}
	return slices.Contains(allowed, unit)
}

// isEnergy decides which association list a meter belongs to.
func isEnergy(utilType models.UtilType) bool {
	return utilType != models.Water
}
