package models

import (
	"slices"
	"time"
)

type ReadingKind string

const (
	ConsumptionKind ReadingKind = "consumption"
	DeliveryKind    ReadingKind = "delivery"
)

func ParseReadingKind(s string) (ReadingKind, bool) {
	switch ReadingKind(s) {
	case ConsumptionKind, DeliveryKind:
		return ReadingKind(s), true
	}
	return "", false
}

type ConsumptionReading struct {
	StartDate  time.Time `json:"start_date" bson:"start_date"`
	EndDate    time.Time `json:"end_date" bson:"end_date"`
	TotalUsage float64   `json:"total_usage" bson:"total_usage"`
	TotalCost  *float64  `json:"total_cost,omitempty" bson:"total_cost,omitempty"`
	Demand     *float64  `json:"demand,omitempty" bson:"demand,omitempty"`
	DemandCost *float64  `json:"demand_cost,omitempty" bson:"demand_cost,omitempty"`
	Estimation bool      `json:"estimation" bson:"estimation"`
}

type DeliveryReading struct {
	DeliveryDate time.Time `json:"delivery_date" bson:"delivery_date"`
	Quantity     float64   `json:"quantity" bson:"quantity"`
	TotalCost    *float64  `json:"total_cost,omitempty" bson:"total_cost,omitempty"`
	Estimation   bool      `json:"estimation" bson:"estimation"`
}

// Readings holds either consumption or delivery readings, never both.
// The zero value is an empty consumption set.
type Readings struct {
	kind        ReadingKind
	consumption []ConsumptionReading
	delivery    []DeliveryReading
}

func ConsumptionReadings(readings []ConsumptionReading) Readings {
	return Readings{kind: ConsumptionKind, consumption: readings}
}

func DeliveryReadings(readings []DeliveryReading) Readings {
	return Readings{kind: DeliveryKind, delivery: readings}
}

func (r Readings) Kind() ReadingKind {
	if r.kind == "" {
		return ConsumptionKind
	}
	return r.kind
}

func (r Readings) Consumption() []ConsumptionReading {
	if r.Kind() != ConsumptionKind {
		return nil
	}
	return r.consumption
}

func (r Readings) Delivery() []DeliveryReading {
	if r.Kind() != DeliveryKind {
		return nil
	}
	return r.delivery
}

func (r Readings) Len() int {
	if r.Kind() == DeliveryKind {
		return len(r.delivery)
	}
	return len(r.consumption)
}

// Sorted returns a copy ordered ascending by start or delivery date.
func (r Readings) Sorted() Readings {
	if r.Kind() == DeliveryKind {
		sorted := slices.Clone(r.delivery)
		slices.SortStableFunc(sorted, func(a, b DeliveryReading) int {
			return a.DeliveryDate.Compare(b.DeliveryDate)
		})
		return DeliveryReadings(sorted)
	}
	sorted := slices.Clone(r.consumption)
	slices.SortStableFunc(sorted, func(a, b ConsumptionReading) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return ConsumptionReadings(sorted)
}

// FirstBillDate is the earliest start or delivery date.
func (r Readings) FirstBillDate() (time.Time, bool) {
	sorted := r.Sorted()
	if sorted.Len() == 0 {
		return time.Time{}, false
	}
	if sorted.Kind() == DeliveryKind {
		return sorted.delivery[0].DeliveryDate, true
	}
	return sorted.consumption[0].StartDate, true
}

// Years lists every calendar year referenced by the readings, unordered, with duplicates.
func (r Readings) Years() []int {
	var years []int
	for _, c := range r.Consumption() {
		years = append(years, c.StartDate.Year(), c.EndDate.Year())
	}
	for _, d := range r.Delivery() {
		years = append(years, d.DeliveryDate.Year())
	}
	return years
}
