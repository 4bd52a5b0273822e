package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Building struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id"`
	OrganizationID    string               `json:"organization_id" bson:"organization_id"`
	Name              string               `json:"name" bson:"name"`
	Address           string               `json:"address" bson:"address"`
	City              string               `json:"city" bson:"city"`
	State             string               `json:"state" bson:"state"`
	PostalCode        string               `json:"postal_code" bson:"postal_code"`
	Country           string               `json:"country" bson:"country"`
	BuildYear         int                  `json:"build_year" bson:"build_year"`
	SquareFeet        float64              `json:"square_feet" bson:"square_feet"`
	BuildingUse       string               `json:"building_use" bson:"building_use"`
	UtilityIDs        []primitive.ObjectID `json:"utility_ids" bson:"utility_ids"`
	EnergystarIDs     []EnergystarLink     `json:"energystar_ids" bson:"energystar_ids"`
	ChangePointModels []ChangePointModel   `json:"change_point_models" bson:"change_point_models"`
	CustomFields      []CustomField        `json:"custom_fields" bson:"custom_fields"`
	BuildingUseTypes  []BuildingUseType    `json:"building_use_types" bson:"building_use_types"`
	Benchmark         Benchmark            `json:"benchmark" bson:"benchmark"`
	RerunAnalyses     bool                 `json:"rerun_analyses" bson:"rerun_analyses"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}

// EnergystarLink ties a building to a remote property under one account.
type EnergystarLink struct {
	AccountID  string `json:"account_id" bson:"account_id"`
	BuildingID string `json:"building_id" bson:"building_id"`
}

type ChangePointModel struct {
	UtilType   UtilType           `json:"util_type" bson:"util_type"`
	ModelType  string             `json:"model_type" bson:"model_type"`
	Parameters map[string]float64 `json:"parameters,omitempty" bson:"parameters,omitempty"`
	RSquared   float64            `json:"r_squared" bson:"r_squared"`
}

type CustomField struct {
	Key          string `json:"key" bson:"key"`
	Value        string `json:"value" bson:"value"`
	IdentifierID string `json:"identifier_id,omitempty" bson:"identifier_id,omitempty"`
}

type Benchmark struct {
	PMScores []PMScore `json:"pm_scores" bson:"pm_scores"`
}

type PMScore struct {
	Year    int           `json:"year" bson:"year"`
	Score   float64       `json:"score" bson:"score"`
	Reasons []ScoreReason `json:"reasons" bson:"reasons"`
}

type ScoreReason struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
}

func (b *Building) AddUtility(id primitive.ObjectID) {
	if slices.Contains(b.UtilityIDs, id) {
		return
	}
	b.UtilityIDs = append(b.UtilityIDs, id)
}

func (b *Building) RemoveUtility(id primitive.ObjectID) bool {
	n := len(b.UtilityIDs)
	b.UtilityIDs = slices.DeleteFunc(b.UtilityIDs, func(u primitive.ObjectID) bool { return u == id })
	return len(b.UtilityIDs) != n
}

// Link returns the remote property id for the account, if the building is linked to it.
func (b *Building) Link(accountID string) (string, bool) {
	for _, link := range b.EnergystarIDs {
		if link.AccountID == accountID {
			return link.BuildingID, true
		}
	}
	return "", false
}

func (b *Building) AddLink(accountID, propertyID string) {
	for i, link := range b.EnergystarIDs {
		if link.AccountID == accountID {
			b.EnergystarIDs[i].BuildingID = propertyID
			return
		}
	}
	b.EnergystarIDs = append(b.EnergystarIDs, EnergystarLink{AccountID: accountID, BuildingID: propertyID})
}

// PruneChangePointModels drops models whose utility type is not among present.
func (b *Building) PruneChangePointModels(present []UtilType) {
	b.ChangePointModels = slices.DeleteFunc(b.ChangePointModels, func(m ChangePointModel) bool {
		return !slices.Contains(present, m.UtilType)
	})
}
