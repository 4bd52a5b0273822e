package models

// BuildingUseType describes one use of a building. Zero-valued attributes are
// treated as absent when the use is sent to Portfolio Manager.
type BuildingUseType struct {
	Use        string  `json:"use" bson:"use"`
	SquareFeet float64 `json:"square_feet" bson:"square_feet"`

	WeeklyOperatingHours                 float64 `json:"weekly_operating_hours,omitempty" bson:"weekly_operating_hours,omitempty"`
	NumberOfWorkers                      float64 `json:"number_of_workers,omitempty" bson:"number_of_workers,omitempty"`
	NumberOfComputers                    float64 `json:"number_of_computers,omitempty" bson:"number_of_computers,omitempty"`
	PercentHeated                        float64 `json:"percent_heated,omitempty" bson:"percent_heated,omitempty"`
	PercentCooled                        float64 `json:"percent_cooled,omitempty" bson:"percent_cooled,omitempty"`
	NumberOfBedrooms                     float64 `json:"number_of_bedrooms,omitempty" bson:"number_of_bedrooms,omitempty"`
	NumberOfResidentialLivingUnits       float64 `json:"number_of_residential_living_units,omitempty" bson:"number_of_residential_living_units,omitempty"`
	NumberOfLaundryHookupsInAllUnits     float64 `json:"number_of_laundry_hookups_in_all_units,omitempty" bson:"number_of_laundry_hookups_in_all_units,omitempty"`
	NumberOfLaundryHookupsInCommonArea   float64 `json:"number_of_laundry_hookups_in_common_area,omitempty" bson:"number_of_laundry_hookups_in_common_area,omitempty"`
	MaximumNumberOfFloors                float64 `json:"maximum_number_of_floors,omitempty" bson:"maximum_number_of_floors,omitempty"`
	NumberOfRooms                        float64 `json:"number_of_rooms,omitempty" bson:"number_of_rooms,omitempty"`
	NumberOfStaffedBeds                  float64 `json:"number_of_staffed_beds,omitempty" bson:"number_of_staffed_beds,omitempty"`
	NumberOfMriMachines                  float64 `json:"number_of_mri_machines,omitempty" bson:"number_of_mri_machines,omitempty"`
	NumberOfFTEWorkers                   float64 `json:"number_of_fte_workers,omitempty" bson:"number_of_fte_workers,omitempty"`
	NumberOfCashRegisters                float64 `json:"number_of_cash_registers,omitempty" bson:"number_of_cash_registers,omitempty"`
	NumberOfWalkInRefrigerationUnits     float64 `json:"number_of_walk_in_refrigeration_units,omitempty" bson:"number_of_walk_in_refrigeration_units,omitempty"`
	NumberOfOpenClosedRefrigerationUnits float64 `json:"number_of_open_closed_refrigeration_units,omitempty" bson:"number_of_open_closed_refrigeration_units,omitempty"`
	NumberOfCommercialRefrigerationUnits float64 `json:"number_of_commercial_refrigeration_units,omitempty" bson:"number_of_commercial_refrigeration_units,omitempty"`
	NumberOfCommercialWashingMachines    float64 `json:"number_of_commercial_washing_machines,omitempty" bson:"number_of_commercial_washing_machines,omitempty"`
	NumberOfResidentialWashingMachines   float64 `json:"number_of_residential_washing_machines,omitempty" bson:"number_of_residential_washing_machines,omitempty"`
	NumberOfSurgicalOperatingBeds        float64 `json:"number_of_surgical_operating_beds,omitempty" bson:"number_of_surgical_operating_beds,omitempty"`
	FoodPreparationFloorArea             float64 `json:"food_preparation_floor_area,omitempty" bson:"food_preparation_floor_area,omitempty"`
	StudentSeatingCapacity               float64 `json:"student_seating_capacity,omitempty" bson:"student_seating_capacity,omitempty"`
	Enrollment                           float64 `json:"enrollment,omitempty" bson:"enrollment,omitempty"`
	MonthsInUse                          float64 `json:"months_in_use,omitempty" bson:"months_in_use,omitempty"`
	NumberOfWeekdaysOpen                 float64 `json:"number_of_weekdays_open,omitempty" bson:"number_of_weekdays_open,omitempty"`
	SeatingCapacity                      float64 `json:"seating_capacity,omitempty" bson:"seating_capacity,omitempty"`
	ClearHeight                          float64 `json:"clear_height,omitempty" bson:"clear_height,omitempty"`
	FullServiceSpaFloorArea              float64 `json:"full_service_spa_floor_area,omitempty" bson:"full_service_spa_floor_area,omitempty"`
	GymCenterFloorArea                   float64 `json:"gym_center_floor_area,omitempty" bson:"gym_center_floor_area,omitempty"`
	LaundryProcessedAnnually             float64 `json:"laundry_processed_annually,omitempty" bson:"laundry_processed_annually,omitempty"`
	HasComputerLab                       bool    `json:"has_computer_lab,omitempty" bson:"has_computer_lab,omitempty"`
	HasDiningHall                        bool    `json:"has_dining_hall,omitempty" bson:"has_dining_hall,omitempty"`
	IsHighSchool                         bool    `json:"is_high_school,omitempty" bson:"is_high_school,omitempty"`
	CookingFacilities                    bool    `json:"cooking_facilities,omitempty" bson:"cooking_facilities,omitempty"`
	OpenOnWeekends                       bool    `json:"open_on_weekends,omitempty" bson:"open_on_weekends,omitempty"`
	OnSiteLaundryFacility                bool    `json:"on_site_laundry_facility,omitempty" bson:"on_site_laundry_facility,omitempty"`
	TertiaryCare                         bool    `json:"tertiary_care,omitempty" bson:"tertiary_care,omitempty"`
}
