package portfolio

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"pmsync/models"
	"pmsync/pm"
	"pmsync/utility"
)

const squareFeet = "Square Feet"

type useDetail struct {
	element string
	units   string
	// text is empty when the use has no value for the detail
	text func(u *models.BuildingUseType) string
}

func number(get func(u *models.BuildingUseType) float64) func(u *models.BuildingUseType) string {
	return func(u *models.BuildingUseType) string {
		if v := get(u); v != 0 {
			return utility.FormatFloat(v)
		}
		return ""
	}
}

func flag(get func(u *models.BuildingUseType) bool) func(u *models.BuildingUseType) string {
	return func(u *models.BuildingUseType) string {
		if get(u) {
			return "Yes"
		}
		return ""
	}
}

var useDetails = []useDetail{
	{"totalGrossFloorArea", squareFeet, number(func(u *models.BuildingUseType) float64 { return u.SquareFeet })},
	{"weeklyOperatingHours", "", number(func(u *models.BuildingUseType) float64 { return u.WeeklyOperatingHours })},
	{"numberOfWorkers", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfWorkers })},
	{"numberOfComputers", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfComputers })},
	{"percentHeated", "", number(func(u *models.BuildingUseType) float64 { return u.PercentHeated })},
	{"percentCooled", "", number(func(u *models.BuildingUseType) float64 { return u.PercentCooled })},
	{"numberOfBedrooms", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfBedrooms })},
	{"numberOfResidentialLivingUnits", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfResidentialLivingUnits })},
	{"numberOfLaundryHookupsInAllUnits", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfLaundryHookupsInAllUnits })},
	{"numberOfLaundryHookupsInCommonArea", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfLaundryHookupsInCommonArea })},
	{"maximumNumberOfFloors", "", number(func(u *models.BuildingUseType) float64 { return u.MaximumNumberOfFloors })},
	{"numberOfRooms", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfRooms })},
	{"numberOfStaffedBeds", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfStaffedBeds })},
	{"numberOfMriMachines", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfMriMachines })},
	{"numberOfFTEWorkers", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfFTEWorkers })},
	{"numberOfCashRegisters", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfCashRegisters })},
	{"numberOfWalkInRefrigerationUnits", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfWalkInRefrigerationUnits })},
	{"numberOfOpenClosedRefrigerationUnits", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfOpenClosedRefrigerationUnits })},
	{"numberOfCommercialRefrigerationUnits", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfCommercialRefrigerationUnits })},
	{"numberOfCommercialWashingMachines", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfCommercialWashingMachines })},
	{"numberOfResidentialWashingMachines", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfResidentialWashingMachines })},
	{"numberOfSurgicalOperatingBeds", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfSurgicalOperatingBeds })},
	{"foodPreparationFloorArea", squareFeet, number(func(u *models.BuildingUseType) float64 { return u.FoodPreparationFloorArea })},
	{"studentSeatingCapacity", "", number(func(u *models.BuildingUseType) float64 { return u.StudentSeatingCapacity })},
	{"enrollment", "", number(func(u *models.BuildingUseType) float64 { return u.Enrollment })},
	{"monthsInUse", "", number(func(u *models.BuildingUseType) float64 { return u.MonthsInUse })},
	{"numberOfWeekdaysOpen", "", number(func(u *models.BuildingUseType) float64 { return u.NumberOfWeekdaysOpen })},
	{"seatingCapacity", "", number(func(u *models.BuildingUseType) float64 { return u.SeatingCapacity })},
	{"clearHeight", "Feet", number(func(u *models.BuildingUseType) float64 { return u.ClearHeight })},
	{"fullServiceSpaFloorArea", squareFeet, number(func(u *models.BuildingUseType) float64 { return u.FullServiceSpaFloorArea })},
	{"gymCenterFloorArea", squareFeet, number(func(u *models.BuildingUseType) float64 { return u.GymCenterFloorArea })},
	{"laundryProcessedAnnually", "Pounds", number(func(u *models.BuildingUseType) float64 { return u.LaundryProcessedAnnually })},
	{"hasComputerLab", "", flag(func(u *models.BuildingUseType) bool { return u.HasComputerLab })},
	{"hasDiningHall", "", flag(func(u *models.BuildingUseType) bool { return u.HasDiningHall })},
	{"isHighSchool", "", flag(func(u *models.BuildingUseType) bool { return u.IsHighSchool })},
	{"cookingFacilities", "", flag(func(u *models.BuildingUseType) bool { return u.CookingFacilities })},
	{"openOnWeekends", "", flag(func(u *models.BuildingUseType) bool { return u.OpenOnWeekends })},
	{"onSiteLaundryFacility", "", flag(func(u *models.BuildingUseType) bool { return u.OnSiteLaundryFacility })},
	{"tertiaryCare", "", flag(func(u *models.BuildingUseType) bool { return u.TertiaryCare })},
}

// currentAsOf dates use details at the start of the construction year.
func currentAsOf(building *models.Building) string {
	year := building.BuildYear
	if year == 0 {
		year = time.Now().Year()
	}
	return fmt.Sprintf("%04d-01-01", year)
}

// PropertyUseXML builds the property use fragment for one use of the building. Only
// attributes with a value are included.
func PropertyUseXML(building *models.Building, use *models.BuildingUseType) *pm.Element {
	asOf := currentAsOf(building)
	details := pm.NewElement("useDetails")
	for _, d := range useDetails {
		text := d.text(use)
		if text == "" {
			continue
		}
		child := pm.NewElement(d.element).Attr("currentAsOf", asOf).Attr("temporary", "false")
		if d.units != "" {
			child.Attr("units", d.units)
		}
		details.Add(child.Add(pm.TextElement("value", text)))
	}
	return pm.NewElement(GetBuildingUse(Buildee, PMXML, use.Use)).Add(
		pm.TextElement("name", GetBuildingUse(Buildee, PM, use.Use)),
		details,
	)
}

// PropertyFromBuilding maps the building to the remote property representation.
func PropertyFromBuilding(building *models.Building) *pm.Property {
	country := building.Country
	if country == "" {
		country = "US"
	}
	return &pm.Property{
		Name:            building.Name,
		PrimaryFunction: GetBuildingUse(Buildee, PM, building.BuildingUse),
		Address: pm.Address{
			Address1:   building.Address,
			City:       building.City,
			State:      building.State,
			PostalCode: building.PostalCode,
			Country:    country,
		},
		YearBuilt:          building.BuildYear,
		ConstructionStatus: "Existing",
		GrossFloorArea: pm.GrossFloorArea{
			Units: squareFeet,
			Value: pm.Decimal(building.SquareFeet),
		},
		OccupancyPercentage: 100,
	}
}

// ApplyProperty copies the remote property fields onto the building.
func ApplyProperty(building *models.Building, property *pm.Property) {
	building.Name = property.Name
	building.Address = property.Address.Address1
	building.City = property.Address.City
	building.State = property.Address.State
	building.PostalCode = property.Address.PostalCode
	building.Country = property.Address.Country
	building.BuildYear = property.YearBuilt
	building.SquareFeet = float64(property.GrossFloorArea.Value)
	building.BuildingUse = GetBuildingUse(PM, Buildee, property.PrimaryFunction)
}

// syncProperty creates the remote property when the building has no link for the
// account, otherwise updates it. It returns the property id.
func (s *Service) syncProperty(ctx context.Context, accountID string, building *models.Building) (string, bool, error) {
	property := PropertyFromBuilding(building)
	if propertyID, ok := building.Link(accountID); ok {
		if err := s.client.UpdateProperty(ctx, propertyID, property); err != nil {
			return propertyID, false, fmt.Errorf("updating property %s: %w", propertyID, err)
		}
		return propertyID, false, nil
	}
	propertyID, err := s.client.CreateProperty(ctx, accountID, property)
	if err != nil {
		return "", false, fmt.Errorf("creating property: %w", err)
	}
	building.AddLink(accountID, propertyID)
	return propertyID, true, nil
}

// syncPropertyUses creates the building uses the property does not have yet.
func (s *Service) syncPropertyUses(ctx context.Context, building *models.Building, propertyID string, result *models.BuildingResult) error {
	existing, err := s.client.ListPropertyUses(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("listing property uses: %w", err)
	}
	for i := range building.BuildingUseTypes {
		use := &building.BuildingUseTypes[i]
		name := GetBuildingUse(Buildee, PM, use.Use)
		if slices.Contains(existing, name) {
			continue
		}
		if _, err = s.client.CreatePropertyUse(ctx, propertyID, PropertyUseXML(building, use)); err != nil {
			result.Add(fmt.Sprintf("Property use %s: %v", name, err))
			continue
		}
		existing = append(existing, name)
	}
	return nil
}

// standardIdentifiers are the identifier types Portfolio Manager approves by name.
var standardIdentifiers = map[string]string{
	"NYC Borough, Block and Lot (BBL)":           "4",
	"NYC Building Identification Number (BIN)":   "5",
	"US Federal Real Property Unique Identifier": "6",
	"California Assessor Parcel Number (APN)":    "7",
	"Utility Customer Number":                    "8",
}

// identifierType returns the remote type id for a custom field. Fields without a
// standard type take the next custom id slot.
func identifierType(key string, custom *int) string {
	if id, ok := standardIdentifiers[key]; ok {
		return id
	}
	*custom++
	return strconv.Itoa(*custom)
}

// syncIdentifiers pushes the building's custom fields one at a time and records the
// ids Portfolio Manager assigns.
func (s *Service) syncIdentifiers(ctx context.Context, building *models.Building, propertyID string, result *models.BuildingResult) {
	custom := 0
	for i := range building.CustomFields {
		field := &building.CustomFields[i]
		identifier := &pm.AdditionalIdentifier{
			Type:        pm.IdentifierType{ID: identifierType(field.Key, &custom)},
			Description: field.Key,
			Value:       field.Value,
		}
		if field.IdentifierID != "" {
			if err := s.client.UpdateIdentifier(ctx, propertyID, field.IdentifierID, identifier); err != nil {
				result.Add(fmt.Sprintf("Identifier %s: %v", field.Key, err))
			}
			continue
		}
		id, err := s.client.CreateIdentifier(ctx, propertyID, identifier)
		if err != nil {
			result.Add(fmt.Sprintf("Identifier %s: %v", field.Key, err))
			continue
		}
		field.IdentifierID = id
	}
}
