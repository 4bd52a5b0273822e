package portfolio

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pmsync/internal"
	"pmsync/models"
	"pmsync/pm"
)

const okBody = `<response status="Ok"/>`

type handler func(req *pm.Request, body []byte) (string, error)

// scriptedTransport answers requests by "METHOD path" and records every call.
type scriptedTransport struct {
	mu     sync.Mutex
	routes map[string]handler
	calls  []string
	bodies map[string][]string
}

func newScripted() *scriptedTransport {
	return &scriptedTransport{routes: map[string]handler{}, bodies: map[string][]string{}}
}

func (s *scriptedTransport) on(route string, h handler) {
	s.routes[route] = h
}

func (s *scriptedTransport) reply(route, body string) {
	s.on(route, func(*pm.Request, []byte) (string, error) { return body, nil })
}

func (s *scriptedTransport) fail(route string, err error) {
	s.on(route, func(*pm.Request, []byte) (string, error) { return "", err })
}

func (s *scriptedTransport) Do(_ context.Context, req *pm.Request, body []byte) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	route := method + " " + req.Path
	s.mu.Lock()
	s.calls = append(s.calls, route)
	s.bodies[route] = append(s.bodies[route], string(body))
	h, ok := s.routes[route]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unexpected request %s", route)
	}
	text, err := h(req, body)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (s *scriptedTransport) count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == route {
			n++
		}
	}
	return n
}

type memoryRepository struct {
	mu        sync.Mutex
	buildings map[primitive.ObjectID]*models.Building
	utilities map[primitive.ObjectID]*models.Utility
	syncs     map[string]*models.PortfolioSync
}

func newRepository() *memoryRepository {
	return &memoryRepository{
		buildings: map[primitive.ObjectID]*models.Building{},
		utilities: map[primitive.ObjectID]*models.Utility{},
		syncs:     map[string]*models.PortfolioSync{},
	}
}

func (m *memoryRepository) GetBuilding(_ context.Context, id primitive.ObjectID) (*models.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buildings[id]; ok {
		return b, nil
	}
	return nil, internal.ErrNotFound
}

func (m *memoryRepository) GetBuildings(_ context.Context, orgID string) ([]*models.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Building
	for _, b := range m.buildings {
		if b.OrganizationID == orgID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *memoryRepository) FindBuildingByLink(_ context.Context, accountID, propertyID string) (*models.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.buildings {
		if id, ok := b.Link(accountID); ok && id == propertyID {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) SaveBuilding(_ context.Context, b *models.Building) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	m.buildings[b.ID] = b
	return nil
}

func (m *memoryRepository) GetUtility(_ context.Context, id primitive.ObjectID) (*models.Utility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.utilities[id]; ok {
		return u, nil
	}
	return nil, internal.ErrNotFound
}

func (m *memoryRepository) GetUtilities(_ context.Context, ids []primitive.ObjectID) ([]*models.Utility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Utility
	for _, id := range ids {
		if u, ok := m.utilities[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *memoryRepository) SaveUtility(_ context.Context, u *models.Utility) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.utilities[u.ID] = u
	return nil
}

func (m *memoryRepository) DeleteUtility(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.utilities, id)
	return nil
}

func (m *memoryRepository) GetPortfolioSync(_ context.Context, accountID string) (*models.PortfolioSync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ps, ok := m.syncs[accountID]; ok {
		return ps, nil
	}
	return nil, internal.ErrNotFound
}

func (m *memoryRepository) GetPortfolioSyncs(_ context.Context, orgID string) ([]*models.PortfolioSync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.PortfolioSync
	for _, ps := range m.syncs {
		if slices.Contains(ps.OrgsWithAccess, orgID) {
			result = append(result, ps)
		}
	}
	return result, nil
}

func (m *memoryRepository) SavePortfolioSync(_ context.Context, ps *models.PortfolioSync) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs[ps.AccountID] = ps
	return nil
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(pm.DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func monthly(t *testing.T, year, months int) []models.ConsumptionReading {
	var readings []models.ConsumptionReading
	start := date(t, fmt.Sprintf("%d-01-01", year))
	for i := 0; i < months; i++ {
		end := start.AddDate(0, 1, -1)
		readings = append(readings, models.ConsumptionReading{StartDate: start, EndDate: end, TotalUsage: float64(1000 + i)})
		start = end.AddDate(0, 0, 1)
	}
	return readings
}

// seed stores a building linked to account A / property 3001 with the given utilities.
func seed(repo *memoryRepository, utilities ...*models.Utility) *models.Building {
	building := &models.Building{
		ID:             primitive.NewObjectID(),
		OrganizationID: "org",
		Name:           "HQ",
		BuildYear:      1998,
		SquareFeet:     52000,
		BuildingUse:    "office",
		EnergystarIDs:  []models.EnergystarLink{{AccountID: "A", BuildingID: "3001"}},
	}
	for _, u := range utilities {
		u.BuildingID = building.ID
		_ = repo.SaveUtility(context.Background(), u)
		building.UtilityIDs = append(building.UtilityIDs, u.ID)
	}
	_ = repo.SaveBuilding(context.Background(), building)
	return building
}

const emptyList = `<response status="Ok"><links/></response>`

func meterList(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<response status="Ok"><links>`)
	for _, id := range ids {
		b.WriteString(`<link id="` + id + `" link="/meter/` + id + `" httpMethod="GET"/>`)
	}
	b.WriteString(`</links></response>`)
	return b.String()
}

func scoreBody(value string) string {
	return `<propertyMetrics propertyId="3001" year="2020" month="12"><metric name="score" dataType="numeric"><value>` + value + `</value></metric></propertyMetrics>`
}

// exportRoutes answers the property level calls every export of property 3001 makes.
func exportRoutes(transport *scriptedTransport, meters ...string) {
	transport.reply("PUT /property/3001", okBody)
	transport.reply("GET /property/3001/propertyUse/list", emptyList)
	transport.reply("POST /property/3001/propertyUse", `<response status="Ok"><id>1</id></response>`)
	transport.reply("GET /property/3001/meter/list", meterList(meters...))
	transport.reply("POST /association/property/3001/meter", okBody)
	transport.reply("GET /property/3001/metrics", scoreBody("80"))
}

func hasMessage(result models.BuildingResult, part string) bool {
	for _, m := range result.Messages {
		if strings.Contains(m, part) {
			return true
		}
	}
	return false
}

func TestGetBuildingUse(t *testing.T) {
	tests := []struct {
		origin, target Vocabulary
		value, want    string
	}{
		{Buildee, PM, "microbreweries", "Manufacturing/Industrial Plant"},
		{Buildee, PMXML, "microbreweries", "other"},
		{PM, Buildee, "Unknown Value", "office"},
		{Buildee, PM, "nothing", "Office"},
		{Buildee, PM, "school", "K-12 School"},
		{PMXML, Buildee, "k12School", "school"},
		{PM, PMXML, "Hospital (General Medical & Surgical)", "hospital"},
		{PMXML, PM, "multifamilyHousing", "Multifamily Housing"},
	}
	for _, tt := range tests {
		if got := GetBuildingUse(tt.origin, tt.target, tt.value); got != tt.want {
			t.Errorf("GetBuildingUse(%s, %s, %q): got %q, want %q", tt.origin, tt.target, tt.value, got, tt.want)
		}
	}
}

func TestUseTableIsConsistent(t *testing.T) {
	for _, v := range []Vocabulary{Buildee, PM, PMXML} {
		if len(useIndex[v]) != len(useTypes) {
			t.Errorf("%s index: got %d entries, want %d", v, len(useIndex[v]), len(useTypes))
		}
	}
}

func TestPropertyUseXML(t *testing.T) {
	building := &models.Building{BuildYear: 1998}
	use := &models.BuildingUseType{Use: "office", SquareFeet: 1000, WeeklyOperatingHours: 60, HasComputerLab: true}
	text, err := pm.GetXMLString(PropertyUseXML(building, use))
	if err != nil {
		t.Fatalf("GetXMLString: %v", err)
	}
	for _, want := range []string{
		`<office>`,
		`<name>Office</name>`,
		`<totalGrossFloorArea currentAsOf="1998-01-01" temporary="false" units="Square Feet">`,
		`<value>1000</value>`,
		`<weeklyOperatingHours currentAsOf="1998-01-01" temporary="false">`,
		`<value>60</value>`,
		`<hasComputerLab currentAsOf="1998-01-01" temporary="false">`,
		`<value>Yes</value>`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	for _, absent := range []string{"numberOfWorkers", "tertiaryCare", "enrollment"} {
		if strings.Contains(text, absent) {
			t.Errorf("unexpected %s in:\n%s", absent, text)
		}
	}
}

func TestMeterMapping(t *testing.T) {
	meterType, unit := MeterType(&models.Utility{UtilType: models.NaturalGas, Units: "therms"})
	if meterType != "Natural Gas" || unit != "therms" {
		t.Errorf("natural gas: got %q %q", meterType, unit)
	}
	if got := LocalType("Municipally Supplied Potable Water - Indoor"); got != models.Water {
		t.Errorf("water variant: got %s", got)
	}
	if got := LocalType("Propane"); got != models.Electric {
		t.Errorf("unknown type: got %s, want electric", got)
	}
	if got := LocalUnit("kBtu (thousand Btu)"); got != "kbtu" {
		t.Errorf("known unit: got %s", got)
	}
	if got := LocalUnit("Cubic Meters"); got != "Cubic Meters" {
		t.Errorf("unknown unit: got %s", got)
	}
	if !UnitAllowed("Natural Gas", "therms") || UnitAllowed("Natural Gas", "ccf (hundred cubic feet)") {
		t.Error("natural gas allows only therms")
	}
	if !UnitAllowed("Propane", "Gallons (US)") {
		t.Error("types without an allow-list are not filtered")
	}
	for _, utilType := range models.UtilTypes {
		meterType, _ := MeterType(&models.Utility{UtilType: utilType})
		if got := LocalType(meterType); got != utilType {
			t.Errorf("round trip %s: got %s", utilType, got)
		}
	}
}

func TestBatches(t *testing.T) {
	readings := make([]models.ConsumptionReading, 0, 250)
	start := date(t, "2000-01-01")
	for i := 249; i >= 0; i-- {
		readings = append(readings, models.ConsumptionReading{StartDate: start.AddDate(0, i, 0), EndDate: start.AddDate(0, i+1, -1)})
	}
	var sizes []int
	var previous time.Time
	for batch := range Batches(models.ConsumptionReadings(readings), BatchSize) {
		sizes = append(sizes, len(batch.Consumption))
		for _, c := range batch.Consumption {
			d := date(t, c.StartDate)
			if d.Before(previous) {
				t.Fatalf("batch not in date order at %s", c.StartDate)
			}
			previous = d
		}
	}
	if !slices.Equal(sizes, []int{100, 100, 50}) {
		t.Errorf("batch sizes: got %v", sizes)
	}
}

func TestExportCreatesMeter(t *testing.T) {
	repo := newRepository()
	utility := &models.Utility{Name: "Main", UtilType: models.Electric, Units: "kwh", Readings: models.ConsumptionReadings(monthly(t, 2020, 2))}
	building := seed(repo, utility)

	transport := newScripted()
	exportRoutes(transport)
	transport.reply("POST /property/3001/meter", `<response status="Ok"><id>9001</id></response>`)
	transport.reply("POST /meter/9001/consumptionData", okBody)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ExportBuilding(context.Background(), "A", building)

	if utility.PMMeterID != "9001" {
		t.Fatalf("meter id: got %q, want 9001; messages %v", utility.PMMeterID, result.Messages)
	}
	if n := transport.count("POST /property/3001/meter"); n != 1 {
		t.Errorf("meters created: got %d, want 1", n)
	}
	if n := transport.count("POST /meter/9001/consumptionData"); n != 1 {
		t.Errorf("reading batches: got %d, want 1", n)
	}
	if !hasMessage(result, "created meter 9001, 2 readings uploaded") {
		t.Errorf("messages: got %v", result.Messages)
	}
	association := transport.bodies["POST /association/property/3001/meter"]
	if len(association) != 1 || !strings.Contains(association[0], "<energyMeterAssociation>") || strings.Contains(association[0], "waterMeterAssociation") {
		t.Errorf("association body: got %v", association)
	}
	if len(building.Benchmark.PMScores) != 1 || building.Benchmark.PMScores[0].Score != 80 {
		t.Errorf("scores: got %+v", building.Benchmark.PMScores)
	}
}

func TestExportReplacesMissingMeter(t *testing.T) {
	repo := newRepository()
	utility := &models.Utility{Name: "Main", UtilType: models.Electric, Units: "kwh", PMMeterID: "555", Readings: models.ConsumptionReadings(monthly(t, 2020, 1))}
	building := seed(repo, utility)

	transport := newScripted()
	exportRoutes(transport, "555", "777")
	transport.fail("GET /meter/555", &pm.Error{Status: http.StatusNotFound, Description: "not found"})
	transport.reply("DELETE /meter/777", okBody)
	transport.reply("POST /property/3001/meter", `<response status="Ok"><id>9002</id></response>`)
	transport.reply("POST /meter/9002/consumptionData", okBody)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ExportBuilding(context.Background(), "A", building)

	if utility.PMMeterID != "9002" {
		t.Fatalf("meter id: got %q, want 9002; messages %v", utility.PMMeterID, result.Messages)
	}
	if transport.count("DELETE /meter/777") != 1 || transport.count("DELETE /meter/555") != 0 {
		t.Errorf("orphan cleanup: calls %v", transport.calls)
	}
	for _, m := range result.Messages {
		if strings.Contains(m, "not found") {
			t.Errorf("missing meter surfaced as error: %v", result.Messages)
		}
	}
}

func TestExportUpdatesExistingMeter(t *testing.T) {
	repo := newRepository()
	utility := &models.Utility{Name: "Main", UtilType: models.Electric, Units: "kwh", PMMeterID: "600", Readings: models.ConsumptionReadings(monthly(t, 2010, 150))}
	building := seed(repo, utility)

	transport := newScripted()
	exportRoutes(transport, "600")
	transport.reply("GET /meter/600", `<meter><id>600</id><type>Electric</type></meter>`)
	transport.reply("PUT /meter/600", okBody)
	transport.reply("DELETE /meter/600/consumptionData", okBody)
	transport.reply("POST /meter/600/consumptionData", okBody)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ExportBuilding(context.Background(), "A", building)

	if transport.count("POST /property/3001/meter") != 0 {
		t.Error("existing meter was recreated")
	}
	if transport.count("DELETE /meter/600/consumptionData") != 1 {
		t.Error("previous readings were not cleared")
	}
	if n := transport.count("POST /meter/600/consumptionData"); n != 2 {
		t.Errorf("reading batches: got %d, want 2", n)
	}
	if !hasMessage(result, "updated meter 600, 150 readings uploaded") {
		t.Errorf("messages: got %v", result.Messages)
	}
}

func TestExportIsolatesUtilityFailures(t *testing.T) {
	repo := newRepository()
	gas := &models.Utility{Name: "Gas", UtilType: models.NaturalGas, Units: "kwh", Readings: models.ConsumptionReadings(monthly(t, 2020, 1))}
	water := &models.Utility{Name: "Water", UtilType: models.Water, Units: "kgal", Readings: models.ConsumptionReadings(monthly(t, 2020, 1))}
	building := seed(repo, gas, water)

	transport := newScripted()
	exportRoutes(transport)
	transport.on("POST /property/3001/meter", func(_ *pm.Request, body []byte) (string, error) {
		if strings.Contains(string(body), "Natural Gas") {
			return "", &pm.Error{Number: pm.InvalidMeterCode, Description: "Invalid unit"}
		}
		return `<response status="Ok"><id>9100</id></response>`, nil
	})
	transport.reply("POST /meter/9100/consumptionData", okBody)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ExportBuilding(context.Background(), "A", building)

	if !hasMessage(result, "Utility Gas: "+invalidMeterMessage) {
		t.Errorf("messages: got %v", result.Messages)
	}
	if water.PMMeterID != "9100" || gas.PMMeterID != "" {
		t.Errorf("meter ids: water %q gas %q", water.PMMeterID, gas.PMMeterID)
	}
	association := transport.bodies["POST /association/property/3001/meter"]
	if len(association) != 1 || !strings.Contains(association[0], "<waterMeterAssociation>") || strings.Contains(association[0], "energyMeterAssociation") {
		t.Errorf("association body: got %v", association)
	}
}

func TestExportCreatesProperty(t *testing.T) {
	repo := newRepository()
	building := seed(repo)
	building.EnergystarIDs = nil
	building.CustomFields = []models.CustomField{{Key: "Campus code", Value: "C-1"}}
	repo.syncs["A"] = &models.PortfolioSync{AccountID: "A", OrgsWithAccess: []string{"org"}}

	transport := newScripted()
	transport.reply("POST /account/A/property", `<response status="Ok"><id>3001</id></response>`)
	transport.reply("GET /property/3001/propertyUse/list", emptyList)
	transport.reply("POST /property/3001/identifier", `<response status="Ok"><id>42</id></response>`)

	service := NewService(pm.New(transport, nil), repo)
	results, err := service.ExportOrganization(context.Background(), "org")
	if err != nil {
		t.Fatalf("ExportOrganization: %v", err)
	}
	if len(results) != 1 || results[0].PropertyID != "3001" {
		t.Fatalf("results: got %+v", results)
	}
	if id, ok := building.Link("A"); !ok || id != "3001" {
		t.Errorf("link: got %v", building.EnergystarIDs)
	}
	if building.CustomFields[0].IdentifierID != "42" {
		t.Errorf("identifier id: got %q", building.CustomFields[0].IdentifierID)
	}
	if transport.count("GET /property/3001/meter/list") != 0 {
		t.Error("orphan cleanup ran for a new property")
	}
}

// brokenUtilities fails every utility lookup and counts building saves.
type brokenUtilities struct {
	*memoryRepository
	saves int
}

func (b *brokenUtilities) GetUtilities(context.Context, []primitive.ObjectID) ([]*models.Utility, error) {
	return nil, fmt.Errorf("db down")
}

func (b *brokenUtilities) SaveBuilding(ctx context.Context, building *models.Building) error {
	b.mu.Lock()
	b.saves++
	b.mu.Unlock()
	return b.memoryRepository.SaveBuilding(ctx, building)
}

func TestExportKeepsNewPropertyLink(t *testing.T) {
	repo := &brokenUtilities{memoryRepository: newRepository()}
	building := seed(repo.memoryRepository)
	building.EnergystarIDs = nil

	transport := newScripted()
	transport.reply("POST /account/A/property", `<response status="Ok"><id>9001</id></response>`)
	transport.reply("GET /property/9001/propertyUse/list", emptyList)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ExportBuilding(context.Background(), "A", building)

	if !hasMessage(result, "Created property 9001") || !hasMessage(result, "Loading utilities: db down") {
		t.Errorf("messages: got %v", result.Messages)
	}
	if repo.saves != 1 {
		t.Fatalf("building saves: got %d, want 1", repo.saves)
	}
	stored := repo.buildings[building.ID]
	if id, ok := stored.Link("A"); !ok || id != "9001" {
		t.Errorf("stored link: got %v", stored.EnergystarIDs)
	}
}

func TestImportUpdatePrunesAndScores(t *testing.T) {
	repo := newRepository()
	kept := &models.Utility{Name: "Main", UtilType: models.Electric, PMMeterID: "5001"}
	gone := &models.Utility{Name: "Old", UtilType: models.Steam, PMMeterID: "5002"}
	building := seed(repo, kept, gone)
	building.ChangePointModels = []models.ChangePointModel{{UtilType: models.Electric}, {UtilType: models.Steam}}

	transport := newScripted()
	transport.reply("GET /property/3001", `<property><name>HQ</name><primaryFunction>Office</primaryFunction><yearBuilt>1998</yearBuilt></property>`)
	transport.reply("GET /property/3001/meter/list", meterList("5001", "5003"))
	transport.reply("GET /meter/5001", `<meter><id>5001</id><type>Electric</type><name>Main</name><unitOfMeasure>kWh (thousand Watt-hours)</unitOfMeasure><firstBillDate>2019-01-01</firstBillDate><inUse>true</inUse></meter>`)
	transport.reply("GET /meter/5003", `<meter><id>5003</id><type>Natural Gas</type><name>Gas</name><unitOfMeasure>ccf (hundred cubic feet)</unitOfMeasure><firstBillDate>2019-01-01</firstBillDate><inUse>true</inUse></meter>`)
	transport.reply("GET /meter/5001/consumptionData", `<meterData>
		<meterConsumption estimatedValue="false"><startDate>2019-01-01</startDate><endDate>2019-01-31</endDate><usage>100</usage></meterConsumption>
		<meterConsumption estimatedValue="true"><startDate>2021-03-01</startDate><endDate>2021-03-31</endDate><usage>90</usage></meterConsumption>
	</meterData>`)
	transport.on("GET /property/3001/metrics", func(req *pm.Request, _ []byte) (string, error) {
		switch req.Query.Get("year") {
		case "2020":
			return scoreBody(""), nil
		case "2021":
			return "", &pm.Error{Status: http.StatusInternalServerError, Description: "metrics unavailable"}
		}
		return scoreBody("71"), nil
	})
	transport.reply("GET /property/3001/reasonsForNoScore", `<alerts/>`)

	service := NewService(pm.New(transport, nil), repo)
	result := service.ImportProperty(context.Background(), "org", "A", "3001")

	if _, ok := repo.utilities[gone.ID]; ok {
		t.Error("utility of the vanished meter was not deleted")
	}
	if !slices.Equal(building.UtilityIDs, []primitive.ObjectID{kept.ID}) {
		t.Errorf("utility ids: got %v", building.UtilityIDs)
	}
	if len(building.ChangePointModels) != 1 || building.ChangePointModels[0].UtilType != models.Electric {
		t.Errorf("change point models: got %+v", building.ChangePointModels)
	}
	if kept.Readings.Len() != 2 || !building.RerunAnalyses {
		t.Errorf("kept utility: got %d readings, rerun %v", kept.Readings.Len(), building.RerunAnalyses)
	}
	if !hasMessage(result, "meter 5003 (Natural Gas) uses unsupported unit") {
		t.Errorf("messages: got %v", result.Messages)
	}

	if n := transport.count("GET /property/3001/metrics"); n != 3 {
		t.Errorf("score calls: got %d, want 3", n)
	}
	scores := building.Benchmark.PMScores
	if len(scores) != 3 {
		t.Fatalf("scores: got %+v", scores)
	}
	if scores[0].Year != 2019 || scores[0].Score != 71 {
		t.Errorf("2019: got %+v", scores[0])
	}
	if scores[1].Year != 2020 || scores[1].Score != 0 || scores[1].Reasons == nil {
		t.Errorf("2020: got %+v", scores[1])
	}
	if scores[2].Year != 2021 || len(scores[2].Reasons) != 1 {
		t.Errorf("2021: got %+v", scores[2])
	}
}

func TestImportContinuesAfterAccountFailure(t *testing.T) {
	repo := newRepository()
	building := seed(repo)
	building.RerunAnalyses = true
	repo.syncs["A"] = &models.PortfolioSync{AccountID: "A", OrgsWithAccess: []string{"org"}}
	repo.syncs["B"] = &models.PortfolioSync{AccountID: "B", OrgsWithAccess: []string{"org"}}

	transport := newScripted()
	transport.fail("GET /account/A/property/list", &pm.Error{Status: http.StatusInternalServerError, Description: "boom"})
	transport.reply("GET /account/B/property/list", emptyList)

	analyzer := &recordingAnalyzer{}
	service := NewService(pm.New(transport, nil), repo)
	service.SetAnalyzer(analyzer)

	results, err := service.ImportOrganization(context.Background(), "org")
	if err != nil {
		t.Fatalf("ImportOrganization: %v", err)
	}
	if transport.count("GET /account/B/property/list") != 1 {
		t.Error("account B was not imported")
	}
	if len(results) != 1 || !hasMessage(results[0], "Account A:") || !hasMessage(results[0], "boom") {
		t.Errorf("results: got %+v", results)
	}
	if !slices.Equal(analyzer.ids, []string{building.ID.Hex()}) {
		t.Errorf("reruns: got %v", analyzer.ids)
	}
}

func TestImportAccountInMockMode(t *testing.T) {
	repo := newRepository()
	client := pm.New(newScripted(), nil)
	client.SetMock(pm.NewMockTransport())
	service := NewService(client, repo)

	results, err := service.ImportAccount(context.Background(), "org", "7001")
	if err != nil {
		t.Fatalf("ImportAccount: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results: got %+v", results)
	}
	building, err := repo.FindBuildingByLink(context.Background(), "7001", "3001")
	if err != nil || building == nil {
		t.Fatalf("building not created: %v", err)
	}
	if building.Name != "Main Street Office" || building.BuildYear != 1998 || building.BuildingUse != "office" {
		t.Errorf("building: got %+v", building)
	}
	utilities, _ := repo.GetUtilities(context.Background(), building.UtilityIDs)
	if len(utilities) != 1 {
		t.Fatalf("utilities: got %d", len(utilities))
	}
	u := utilities[0]
	if u.PMMeterID != "5001" || u.UtilType != models.Electric || u.Units != "kwh" || u.Readings.Len() != 2 {
		t.Errorf("utility: got %+v", u)
	}
}

func TestLinkAccount(t *testing.T) {
	repo := newRepository()
	client := pm.New(newScripted(), nil)
	client.SetMock(pm.NewMockTransport())
	service := NewService(client, repo)

	link, err := service.LinkAccount(context.Background(), "org", "7001")
	if err != nil {
		t.Fatalf("LinkAccount: %v", err)
	}
	if link.Username != "facility_owner" || link.Email != "pat.lee@example.com" || !slices.Equal(link.OrgsWithAccess, []string{"org"}) {
		t.Errorf("link: got %+v", link)
	}
	if _, err = service.LinkAccount(context.Background(), "org-2", "7001"); err != nil {
		t.Fatal(err)
	}
	if got := repo.syncs["7001"].OrgsWithAccess; !slices.Equal(got, []string{"org", "org-2"}) {
		t.Errorf("orgs: got %v", got)
	}
}

func TestDeleteUtility(t *testing.T) {
	repo := newRepository()
	electric := &models.Utility{Name: "Main", UtilType: models.Electric, PMMeterID: "5001"}
	water := &models.Utility{Name: "Water", UtilType: models.Water}
	building := seed(repo, electric, water)
	building.ChangePointModels = []models.ChangePointModel{{UtilType: models.Electric}, {UtilType: models.Water}}

	transport := newScripted()
	transport.reply("DELETE /meter/5001", okBody)
	service := NewService(pm.New(transport, nil), repo)

	if err := service.DeleteUtility(context.Background(), electric.ID); err != nil {
		t.Fatalf("DeleteUtility: %v", err)
	}
	if transport.count("DELETE /meter/5001") != 1 {
		t.Error("remote meter not deleted")
	}
	if !slices.Equal(building.UtilityIDs, []primitive.ObjectID{water.ID}) {
		t.Errorf("utility ids: got %v", building.UtilityIDs)
	}
	if len(building.ChangePointModels) != 1 || building.ChangePointModels[0].UtilType != models.Water {
		t.Errorf("change point models: got %+v", building.ChangePointModels)
	}
}

type recordingAnalyzer struct {
	ids []string
}

func (r *recordingAnalyzer) Rerun(_ context.Context, buildingID string) error {
	r.ids = append(r.ids, buildingID)
	return nil
}

func TestRerunAnalysesClearsFlag(t *testing.T) {
	repo := newRepository()
	flagged := seed(repo)
	flagged.RerunAnalyses = true
	clean := seed(repo)

	analyzer := &recordingAnalyzer{}
	service := NewService(pm.New(newScripted(), nil), repo)
	service.SetAnalyzer(analyzer)
	service.RerunAnalyses(context.Background(), []*models.Building{flagged, clean})

	if !slices.Equal(analyzer.ids, []string{flagged.ID.Hex()}) {
		t.Errorf("reruns: got %v", analyzer.ids)
	}
	if flagged.RerunAnalyses {
		t.Error("flag not cleared")
	}
}

func TestYearRange(t *testing.T) {
	utilities := []*models.Utility{
		{Readings: models.DeliveryReadings([]models.DeliveryReading{{DeliveryDate: date(t, "2021-05-01")}})},
		{Readings: models.ConsumptionReadings([]models.ConsumptionReading{{StartDate: date(t, "2018-12-15"), EndDate: date(t, "2019-01-14")}})},
		{},
	}
	if got := YearRange(utilities); !slices.Equal(got, []int{2018, 2019, 2020, 2021}) {
		t.Errorf("YearRange: got %v", got)
	}
	if got := YearRange(nil); got != nil {
		t.Errorf("YearRange(nil): got %v", got)
	}
}
