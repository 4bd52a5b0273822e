package ingest

import (
	"time"

	"pmsync/models"
	"pmsync/utility"
)

// Transform converts rows that already passed Validate into readings. The header row
// and blank rows are dropped.
func Transform(rows [][]string, layout Layout) models.Readings {
	width := layout.Width()
	if layout.Kind == models.DeliveryKind {
		readings := make([]models.DeliveryReading, 0, len(rows))
		for _, raw := range dataRows(rows) {
			row := normalize(raw, width)
			date, _ := time.Parse(DateLayout, row[0])
			quantity, _ := utility.ToFloat(row[1])
			readings = append(readings, models.DeliveryReading{
				DeliveryDate: date,
				Quantity:     quantity,
				TotalCost:    optionalFloat(row[2]),
				Estimation:   row[3] == "yes",
			})
		}
		return models.DeliveryReadings(readings)
	}

	readings := make([]models.ConsumptionReading, 0, len(rows))
	for _, raw := range dataRows(rows) {
		row := normalize(raw, width)
		start, _ := time.Parse(DateLayout, row[0])
		end, _ := time.Parse(DateLayout, row[1])
		usage, _ := utility.ToFloat(row[2])
		reading := models.ConsumptionReading{
			StartDate:  start,
			EndDate:    end,
			TotalUsage: usage,
			TotalCost:  optionalFloat(row[3]),
			Estimation: row[width-1] == "yes",
		}
		if layout.Electric {
			reading.Demand = optionalFloat(row[4])
			reading.DemandCost = optionalFloat(row[5])
		}
		readings = append(readings, reading)
	}
	return models.ConsumptionReadings(readings)
}

func dataRows(rows [][]string) [][]string {
	if len(rows) < 2 {
		return nil
	}
	result := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if !isBlank(row) {
			result = append(result, row)
		}
	}
	return result
}

func optionalFloat(s string) *float64 {
	f, ok := utility.ToFloat(s)
	if !ok {
		return nil
	}
	return &f
}
