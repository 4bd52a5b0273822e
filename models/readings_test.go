package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadingsZeroValue(t *testing.T) {
	var r Readings
	if r.Kind() != ConsumptionKind {
		t.Errorf("Kind: got %q, want %q", r.Kind(), ConsumptionKind)
	}
	if r.Len() != 0 {
		t.Errorf("Len: got %d, want 0", r.Len())
	}
	if _, ok := r.FirstBillDate(); ok {
		t.Error("FirstBillDate: expected none for empty readings")
	}
}

func TestReadingsExclusive(t *testing.T) {
	r := DeliveryReadings([]DeliveryReading{{DeliveryDate: date(2020, 1, 1), Quantity: 10}})
	if r.Consumption() != nil {
		t.Error("Consumption: expected nil for delivery readings")
	}
	if len(r.Delivery()) != 1 {
		t.Errorf("Delivery: got %d readings, want 1", len(r.Delivery()))
	}
}

func TestFirstBillDateSortsFirst(t *testing.T) {
	r := ConsumptionReadings([]ConsumptionReading{
		{StartDate: date(2020, 3, 1), EndDate: date(2020, 3, 31)},
		{StartDate: date(2020, 1, 1), EndDate: date(2020, 1, 31)},
		{StartDate: date(2020, 2, 1), EndDate: date(2020, 2, 29)},
	})
	first, ok := r.FirstBillDate()
	if !ok || !first.Equal(date(2020, 1, 1)) {
		t.Errorf("FirstBillDate: got %v, want 2020-01-01", first)
	}
	if !r.Consumption()[0].StartDate.Equal(date(2020, 3, 1)) {
		t.Error("Sorted must not reorder the receiver")
	}
}

func TestYears(t *testing.T) {
	r := ConsumptionReadings([]ConsumptionReading{
		{StartDate: date(2019, 12, 15), EndDate: date(2020, 1, 14)},
	})
	years := r.Years()
	if len(years) != 2 || years[0] != 2019 || years[1] != 2020 {
		t.Errorf("Years: got %v, want [2019 2020]", years)
	}
}

func TestUtilityBSONKeepsVariant(t *testing.T) {
	u := Utility{
		ID:       primitive.NewObjectID(),
		Name:     "Oil tank",
		UtilType: FuelOil2,
		Readings: DeliveryReadings([]DeliveryReading{{DeliveryDate: date(2021, 5, 1), Quantity: 300}}),
	}
	data, err := bson.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	var raw bson.M
	if err = bson.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["meter_data"]; ok {
		t.Error("meter_data must not be stored for delivery utilities")
	}

	var decoded Utility
	if err = bson.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Readings.Kind() != DeliveryKind || decoded.Readings.Len() != 1 {
		t.Errorf("decoded readings: got kind %q len %d", decoded.Readings.Kind(), decoded.Readings.Len())
	}
	if decoded.ID != u.ID {
		t.Errorf("ID: got %v, want %v", decoded.ID, u.ID)
	}
}

func TestPruneChangePointModels(t *testing.T) {
	b := Building{ChangePointModels: []ChangePointModel{{UtilType: Electric}, {UtilType: NaturalGas}}}
	b.PruneChangePointModels([]UtilType{Electric})
	if len(b.ChangePointModels) != 1 || b.ChangePointModels[0].UtilType != Electric {
		t.Errorf("ChangePointModels: got %+v", b.ChangePointModels)
	}
}
