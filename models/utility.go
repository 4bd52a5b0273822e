package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UtilType string

const (
	Electric    UtilType = "electric"
	NaturalGas  UtilType = "natural-gas"
	Water       UtilType = "water"
	Steam       UtilType = "steam"
	FuelOil2    UtilType = "fuel-oil-2"
	FuelOil4    UtilType = "fuel-oil-4"
	FuelOil56   UtilType = "fuel-oil-5-6"
	Diesel      UtilType = "diesel"
	OtherEnergy UtilType = "other"
)

var UtilTypes = []UtilType{Electric, NaturalGas, Water, Steam, FuelOil2, FuelOil4, FuelOil56, Diesel, OtherEnergy}

func ParseUtilType(s string) (UtilType, bool) {
	for _, t := range UtilTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type Utility struct {
	ID                 primitive.ObjectID
	BuildingID         primitive.ObjectID
	Name               string
	MeterNumber        string
	AccountNumber      string
	MeterType          string
	MeterPurpose       string
	MeterConfiguration string
	MeterShared        bool
	Source             string
	Units              string
	UtilType           UtilType
	PMMeterID          string
	CreatedByUserID    string
	Readings           Readings
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// utilityDocument is the stored shape; only one of MeterData/DeliveryData is written.
type utilityDocument struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id"`
	BuildingID         primitive.ObjectID   `json:"building_id" bson:"building_id"`
	Name               string               `json:"name" bson:"name"`
	MeterNumber        string               `json:"meter_number" bson:"meter_number"`
	AccountNumber      string               `json:"account_number" bson:"account_number"`
	MeterType          string               `json:"meter_type" bson:"meter_type"`
	MeterPurpose       string               `json:"meter_purpose" bson:"meter_purpose"`
	MeterConfiguration string               `json:"meter_configuration" bson:"meter_configuration"`
	MeterShared        bool                 `json:"meter_shared" bson:"meter_shared"`
	Source             string               `json:"source" bson:"source"`
	Units              string               `json:"units" bson:"units"`
	UtilType           UtilType             `json:"util_type" bson:"util_type"`
	PMMeterID          string               `json:"portfolio_manager_meter_id,omitempty" bson:"portfolio_manager_meter_id,omitempty"`
	CreatedByUserID    string               `json:"created_by_user_id" bson:"created_by_user_id"`
	MeterData          []ConsumptionReading `json:"meter_data,omitempty" bson:"meter_data,omitempty"`
	DeliveryData       []DeliveryReading    `json:"delivery_data,omitempty" bson:"delivery_data,omitempty"`
	CreatedAt          time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" bson:"updated_at"`
}

func (u *Utility) document() utilityDocument {
	return utilityDocument{
		ID:                 u.ID,
		BuildingID:         u.BuildingID,
		Name:               u.Name,
		MeterNumber:        u.MeterNumber,
		AccountNumber:      u.AccountNumber,
		MeterType:          u.MeterType,
		MeterPurpose:       u.MeterPurpose,
		MeterConfiguration: u.MeterConfiguration,
		MeterShared:        u.MeterShared,
		Source:             u.Source,
		Units:              u.Units,
		UtilType:           u.UtilType,
		PMMeterID:          u.PMMeterID,
		CreatedByUserID:    u.CreatedByUserID,
		MeterData:          u.Readings.Consumption(),
		DeliveryData:       u.Readings.Delivery(),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (u *Utility) fromDocument(d utilityDocument) {
	u.ID = d.ID
	u.BuildingID = d.BuildingID
	u.Name = d.Name
	u.MeterNumber = d.MeterNumber
	u.AccountNumber = d.AccountNumber
	u.MeterType = d.MeterType
	u.MeterPurpose = d.MeterPurpose
	u.MeterConfiguration = d.MeterConfiguration
	u.MeterShared = d.MeterShared
	u.Source = d.Source
	u.Units = d.Units
	u.UtilType = d.UtilType
	u.PMMeterID = d.PMMeterID
	u.CreatedByUserID = d.CreatedByUserID
	u.CreatedAt = d.CreatedAt
	u.UpdatedAt = d.UpdatedAt
	if len(d.DeliveryData) > 0 {
		u.Readings = DeliveryReadings(d.DeliveryData)
	} else {
		u.Readings = ConsumptionReadings(d.MeterData)
	}
}

func (u Utility) MarshalBSON() ([]byte, error) {
	return bson.Marshal(u.document())
}

func (u *Utility) UnmarshalBSON(data []byte) error {
	var d utilityDocument
	if err := bson.Unmarshal(data, &d); err != nil {
		return err
	}
	u.fromDocument(d)
	return nil
}

func (u Utility) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.document())
}

func (u *Utility) UnmarshalJSON(data []byte) error {
	var d utilityDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	u.fromDocument(d)
	return nil
}

func (u *Utility) IsWater() bool {
	return u.UtilType == Water
}

// DefaultUnits is the unit recorded for uploaded readings of the type.
func DefaultUnits(t UtilType) string {
	switch t {
	case Electric:
		return "kwh"
	case NaturalGas:
		return "therms"
	case Water:
		return "kgal"
	case Steam:
		return "mlb"
	case FuelOil2, FuelOil4, FuelOil56, Diesel:
		return "gallons"
	}
	return "kbtu"
}
