package ingest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pmsync/internal"
	"pmsync/models"
)

func rowsOf(t *testing.T, csv string) [][]string {
	t.Helper()
	rows, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return rows
}

const electricCSV = "\ufeffStart Date,End Date,Total Usage,Total Cost,Demand,Demand Cost,Estimation\n" +
	"1/1/20,1/31/20,\"13,000\",$1200.50,45,300,no\n" +
	",,,,,,\n" +
	"2/1/20,2/29/20,12000,,,,yes\n"

func TestValidateConsumption(t *testing.T) {
	rows := rowsOf(t, electricCSV)
	layout := NewLayout(models.ConsumptionKind, models.Electric)

	warnings, err := Validate(rows, layout)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings: got %v, want none", warnings)
	}

	readings := Transform(rows, layout)
	if readings.Kind() != models.ConsumptionKind {
		t.Fatalf("kind: got %s", readings.Kind())
	}
	got := readings.Consumption()
	// header and the blank row are dropped
	if len(got) != 2 {
		t.Fatalf("readings: got %d, want 2", len(got))
	}
	first := got[0]
	if first.TotalUsage != 13000 || first.TotalCost == nil || *first.TotalCost != 1200.5 || first.Estimation {
		t.Errorf("first reading: got %+v", first)
	}
	if first.Demand == nil || *first.Demand != 45 || first.DemandCost == nil || *first.DemandCost != 300 {
		t.Errorf("first reading demand: got %+v", first)
	}
	if second := got[1]; second.TotalCost != nil || second.Demand != nil || !second.Estimation {
		t.Errorf("second reading: got %+v", second)
	}
}

func TestValidateHeaders(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		utilType models.UtilType
		kind     models.ReadingKind
		ok       bool
	}{
		{"gas", "Start Date,End Date,Total Usage,Total Cost,Estimation", models.NaturalGas, models.ConsumptionKind, true},
		{"usage cost alias", "Start Date,End Date,Total Usage,Total Usage Cost,Estimation", models.Water, models.ConsumptionKind, true},
		{"electric without demand", "Start Date,End Date,Total Usage,Total Cost,Estimation", models.Electric, models.ConsumptionKind, false},
		{"delivery", "Delivery Date,Quantity,Cost,Estimation", models.Diesel, models.DeliveryKind, true},
		{"delivery swapped", "Quantity,Delivery Date,Cost,Estimation", models.Diesel, models.DeliveryKind, false},
		{"trailing empty cells", "Delivery Date,Quantity,Cost,Estimation,,", models.FuelOil2, models.DeliveryKind, true},
	}
	for _, tt := range tests {
		_, err := Validate(rowsOf(t, tt.header+"\n"), NewLayout(tt.kind, tt.utilType))
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrHeader) {
			t.Errorf("%s: got %v, want ErrHeader", tt.name, err)
		}
	}
}

func TestValidateRowErrors(t *testing.T) {
	gas := NewLayout(models.ConsumptionKind, models.NaturalGas)
	delivery := NewLayout(models.DeliveryKind, models.FuelOil2)
	const gasHeader = "Start Date,End Date,Total Usage,Total Cost,Estimation\n"
	const deliveryHeader = "Delivery Date,Quantity,Cost,Estimation\n"

	tests := []struct {
		name   string
		layout Layout
		csv    string
		line   int
	}{
		{"short row", gas, gasHeader + "1/1/20,1/31/20,100,no\n", 2},
		{"bad date", gas, gasHeader + "1/1/20,1/31/20,100,5,no\n2020-02-01,2/29/20,100,5,no\n", 3},
		{"end before start", gas, gasHeader + "1/31/20,1/1/20,100,5,no\n", 2},
		{"usage not numeric", gas, gasHeader + "1/1/20,1/31/20,lots,5,no\n", 2},
		{"usage not finite", gas, gasHeader + "1/1/20,1/31/20,NaN,5,no\n", 2},
		{"cost not numeric", gas, gasHeader + "1/1/20,1/31/20,100,free,no\n", 2},
		{"estimation", gas, gasHeader + "1/1/20,1/31/20,100,5,maybe\n", 2},
		{"empty estimation", gas, gasHeader + "1/1/20,1/31/20,100,5,\n", 2},
		{"delivery quantity", delivery, deliveryHeader + "1/5/20,,10,no\n", 2},
		{"delivery length", delivery, deliveryHeader + ",,,\n,,,\n1/5/20,100,10,no,extra\n", 4},
	}
	for _, tt := range tests {
		_, err := Validate(rowsOf(t, tt.csv), tt.layout)
		var rowErr *RowError
		if !errors.As(err, &rowErr) {
			t.Errorf("%s: got %v, want *RowError", tt.name, err)
			continue
		}
		if rowErr.Line != tt.line {
			t.Errorf("%s: line got %d, want %d", tt.name, rowErr.Line, tt.line)
		}
		if !strings.Contains(err.Error(), "Line ") {
			t.Errorf("%s: message %q has no line number", tt.name, err.Error())
		}
		if !IsValidation(err) {
			t.Errorf("%s: IsValidation false", tt.name)
		}
	}
}

func TestBillingPeriodWarning(t *testing.T) {
	csv := "Start Date,End Date,Total Usage,Total Cost,Estimation\n" +
		"1/1/20,1/10/20,100,5,no\n" +
		"1/10/20,2/9/20,100,5,no\n" +
		"2/9/20,4/1/20,100,5,yes\n"
	layout := NewLayout(models.ConsumptionKind, models.Steam)
	rows := rowsOf(t, csv)
	warnings, err := Validate(rows, layout)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings: got %v, want 2", warnings)
	}
	if !strings.HasPrefix(warnings[0], "Line 2:") || !strings.HasPrefix(warnings[1], "Line 4:") {
		t.Errorf("warnings: got %v", warnings)
	}
	if n := Transform(rows, layout).Len(); n != len(rows)-1 {
		t.Errorf("readings: got %d, want %d", n, len(rows)-1)
	}
}

func TestDeliveryTransform(t *testing.T) {
	csv := "Delivery Date,Quantity,Cost,Estimation\n3/15/21,500,,\n4/15/21,250.5,99,yes\n"
	layout := NewLayout(models.DeliveryKind, models.FuelOil4)
	rows := rowsOf(t, csv)
	if _, err := Validate(rows, layout); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	readings := Transform(rows, layout)
	got := readings.Delivery()
	if len(got) != 2 || readings.Consumption() != nil {
		t.Fatalf("readings: got %+v", readings)
	}
	if got[0].Quantity != 500 || got[0].TotalCost != nil || got[0].Estimation {
		t.Errorf("first delivery: got %+v", got[0])
	}
	if got[1].DeliveryDate.Month() != 4 || got[1].Quantity != 250.5 || !got[1].Estimation {
		t.Errorf("second delivery: got %+v", got[1])
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"Delivery Date", "Quantity", "Cost", "Estimation"},
		{"1/5/20", "100", "10", "no"},
	}
	for i, row := range values {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ReadFile("deliveries.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err = Validate(rows, NewLayout(models.DeliveryKind, models.Diesel)); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadXLSXMatchesCSV(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"Delivery Date", "Quantity", "Cost", "Estimation"},
		{time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), 100, 10, "no"},
		{time.Date(2020, 2, 9, 0, 0, 0, 0, time.UTC), 80},
		{"3/1/20", 50, "", "yes"},
	}
	for i, row := range values {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	format := "mm/dd/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		t.Fatal(err)
	}
	if err = f.SetCellValue(sheet, "A5", time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err = f.SetCellValue(sheet, "B5", 20); err != nil {
		t.Fatal(err)
	}
	if err = f.SetCellStyle(sheet, "A5", "A5", style); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile("deliveries.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := rowsOf(t, "Delivery Date,Quantity,Cost,Estimation\n"+
		"1/5/20,100,10,no\n"+
		"2/9/20,80,,\n"+
		"3/1/20,50,,yes\n"+
		"3/15/20,20,,\n")
	if len(got) != len(want) {
		t.Fatalf("rows: got %q, want %q", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("row %d: got %q, want %q", i+1, got[i], want[i])
		}
	}
	if _, err = Validate(got, NewLayout(models.DeliveryKind, models.Diesel)); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

type memoryRepository struct {
	buildings map[primitive.ObjectID]*models.Building
	utilities map[primitive.ObjectID]*models.Utility
}

func (m *memoryRepository) GetBuilding(_ context.Context, id primitive.ObjectID) (*models.Building, error) {
	b, ok := m.buildings[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	return b, nil
}

func (m *memoryRepository) SaveBuilding(_ context.Context, b *models.Building) error {
	m.buildings[b.ID] = b
	return nil
}

func (m *memoryRepository) SaveUtility(_ context.Context, u *models.Utility) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.utilities[u.ID] = u
	return nil
}

type memoryArchive struct {
	keys []string
}

func (m *memoryArchive) Put(_ context.Context, key, _ string, _ []byte) error {
	m.keys = append(m.keys, key)
	return nil
}

func TestUpload(t *testing.T) {
	building := &models.Building{ID: primitive.NewObjectID(), Name: "HQ"}
	repo := &memoryRepository{
		buildings: map[primitive.ObjectID]*models.Building{building.ID: building},
		utilities: map[primitive.ObjectID]*models.Utility{},
	}
	archive := &memoryArchive{}
	service := NewService(repo)
	service.SetArchive(archive)

	result, err := service.Upload(context.Background(), &Request{
		BuildingID: building.ID,
		UtilType:   models.Electric,
		Kind:       models.ConsumptionKind,
		UserID:     "user-1",
		File:       File{Name: "main-meter.csv", ContentType: "text/csv", Data: []byte(electricCSV)},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Utility.Name != "main-meter" || result.Utility.Units != "kwh" || result.Utility.Readings.Len() != 2 {
		t.Errorf("utility: got %+v", result.Utility)
	}
	if _, ok := repo.utilities[result.Utility.ID]; !ok {
		t.Error("utility not saved")
	}
	if len(building.UtilityIDs) != 1 || building.UtilityIDs[0] != result.Utility.ID || !building.RerunAnalyses {
		t.Errorf("building: got %+v", building)
	}
	if len(archive.keys) != 1 || !strings.HasSuffix(archive.keys[0], ".csv") {
		t.Errorf("archive keys: got %v", archive.keys)
	}

	_, err = service.Upload(context.Background(), &Request{
		BuildingID: building.ID,
		UtilType:   models.NaturalGas,
		Kind:       models.ConsumptionKind,
		File:       File{Name: "gas.csv", Data: []byte("wrong,header\n")},
	})
	if !IsValidation(err) {
		t.Errorf("bad header: got %v, want validation error", err)
	}
	if len(repo.utilities) != 1 {
		t.Errorf("rejected upload saved a utility")
	}

	_, err = service.Upload(context.Background(), &Request{
		BuildingID: primitive.NewObjectID(),
		UtilType:   models.Electric,
		Kind:       models.ConsumptionKind,
		File:       File{Name: "x.csv", Data: []byte(electricCSV)},
	})
	if !errors.Is(err, internal.ErrNotFound) || IsValidation(err) {
		t.Errorf("missing building: got %v", err)
	}
}
