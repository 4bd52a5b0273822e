package portfolio

import (
	"iter"
	"slices"
	"time"

	"pmsync/models"
	"pmsync/pm"
)

// BatchSize is the largest number of readings sent in one request.
const BatchSize = 100

func toConsumption(r models.ConsumptionReading) pm.MeterConsumption {
	c := pm.MeterConsumption{
		Estimated: r.Estimation,
		Cost:      pm.DecimalPtr(r.TotalCost),
		StartDate: r.StartDate.Format(pm.DateLayout),
		EndDate:   r.EndDate.Format(pm.DateLayout),
		Usage:     pm.Decimal(r.TotalUsage),
	}
	if r.Demand != nil || r.DemandCost != nil {
		c.DemandTracking = &pm.DemandTracking{Demand: pm.DecimalPtr(r.Demand), DemandCost: pm.DecimalPtr(r.DemandCost)}
	}
	return c
}

func toDelivery(r models.DeliveryReading) pm.MeterDelivery {
	return pm.MeterDelivery{
		Estimated:    r.Estimation,
		Cost:         pm.DecimalPtr(r.TotalCost),
		DeliveryDate: r.DeliveryDate.Format(pm.DateLayout),
		Quantity:     pm.Decimal(r.Quantity),
	}
}

// Batches yields the readings in date order as meter data payloads of at most size readings.
func Batches(readings models.Readings, size int) iter.Seq[*pm.MeterData] {
	sorted := readings.Sorted()
	return func(yield func(*pm.MeterData) bool) {
		if sorted.Kind() == models.DeliveryKind {
			for chunk := range slices.Chunk(sorted.Delivery(), size) {
				data := &pm.MeterData{Delivery: make([]pm.MeterDelivery, 0, len(chunk))}
				for _, r := range chunk {
					data.Delivery = append(data.Delivery, toDelivery(r))
				}
				if !yield(data) {
					return
				}
			}
			return
		}
		for chunk := range slices.Chunk(sorted.Consumption(), size) {
			data := &pm.MeterData{Consumption: make([]pm.MeterConsumption, 0, len(chunk))}
			for _, r := range chunk {
				data.Consumption = append(data.Consumption, toConsumption(r))
			}
			if !yield(data) {
				return
			}
		}
	}
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(pm.DateLayout, s)
	return t
}

// ReadingsFromMeterData converts downloaded meter data; delivery data wins when a
// meter reports both.
func ReadingsFromMeterData(data *pm.MeterData) models.Readings {
	if len(data.Delivery) > 0 {
		readings := make([]models.DeliveryReading, 0, len(data.Delivery))
		for _, d := range data.Delivery {
			readings = append(readings, models.DeliveryReading{
				DeliveryDate: parseDate(d.DeliveryDate),
				Quantity:     float64(d.Quantity),
				TotalCost:    d.Cost.Float(),
				Estimation:   d.Estimated,
			})
		}
		return models.DeliveryReadings(readings)
	}
	readings := make([]models.ConsumptionReading, 0, len(data.Consumption))
	for _, c := range data.Consumption {
		reading := models.ConsumptionReading{
			StartDate:  parseDate(c.StartDate),
			EndDate:    parseDate(c.EndDate),
			TotalUsage: float64(c.Usage),
			TotalCost:  c.Cost.Float(),
			Estimation: c.Estimated,
		}
		if c.DemandTracking != nil {
			reading.Demand = c.DemandTracking.Demand.Float()
			reading.DemandCost = c.DemandTracking.DemandCost.Float()
		}
		readings = append(readings, reading)
	}
	return models.ConsumptionReadings(readings)
}
