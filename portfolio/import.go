package portfolio

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"pmsync/metrics/counters"
	"pmsync/models"
	"pmsync/pm"
)

const importSource = "portfolio-manager"

type remoteMeter struct {
	meter *pm.Meter
	data  *pm.MeterData
}

// ImportOrganization pulls every property shared by the organization's accounts.
// An account that cannot be listed is logged in the results and skipped.
func (s *Service) ImportOrganization(ctx context.Context, orgID string) ([]models.BuildingResult, error) {
	syncs, err := s.repository.GetPortfolioSyncs(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if len(syncs) == 0 {
		return nil, ErrNoAccount
	}
	var results []models.BuildingResult
	for _, ps := range syncs {
		accountResults, err := s.ImportAccount(ctx, orgID, ps.AccountID)
		if err != nil {
			counters.CountUtilityError(featureImport)
			results = append(results, models.BuildingResult{
				Messages: []string{fmt.Sprintf("Account %s: %s", ps.AccountID, describe(err))},
			})
			continue
		}
		results = append(results, accountResults...)
	}

	buildings, err := s.repository.GetBuildings(ctx, orgID)
	if err != nil {
		return results, fmt.Errorf("loading buildings: %w", err)
	}
	s.RerunAnalyses(ctx, buildings)
	return results, nil
}

// ImportAccount imports each property of the account concurrently.
func (s *Service) ImportAccount(ctx context.Context, orgID, accountID string) ([]models.BuildingResult, error) {
	propertyIDs, err := s.client.ListProperties(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]models.BuildingResult, 0, len(propertyIDs))
	)
	for _, propertyID := range propertyIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := s.ImportProperty(ctx, orgID, accountID, propertyID)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results, nil
}

// ImportProperty reconciles the local building linked to the property with its
// remote meters. A building is created on first import.
func (s *Service) ImportProperty(ctx context.Context, orgID, accountID, propertyID string) models.BuildingResult {
	result := models.BuildingResult{PropertyID: propertyID}

	building, err := s.repository.FindBuildingByLink(ctx, accountID, propertyID)
	if err != nil {
		result.Add(fmt.Sprintf("Loading building: %v", err))
		return result
	}
	firstImport := building == nil
	property, err := s.client.GetProperty(ctx, propertyID)
	if err != nil {
		result.Add(fmt.Sprintf("Loading property: %s", describe(err)))
		return result
	}
	if firstImport {
		building = &models.Building{OrganizationID: orgID}
		building.AddLink(accountID, propertyID)
	}
	ApplyProperty(building, property)
	if err = s.saveBuilding(ctx, building); err != nil {
		result.Add(fmt.Sprintf("Saving building: %v", err))
		return result
	}
	result.BuildingID = building.ID.Hex()
	result.Name = building.Name

	meterIDs, err := s.client.ListMeters(ctx, propertyID)
	if err != nil {
		result.Add(fmt.Sprintf("Listing meters: %s", describe(err)))
		return result
	}
	accepted, skipped := s.fetchMeters(ctx, meterIDs, &result)
	if len(skipped) > 0 {
		result.Add("Skipped meters: " + strings.Join(skipped, "; "))
	}

	existing, err := s.repository.GetUtilities(ctx, building.UtilityIDs)
	if err != nil {
		result.Add(fmt.Sprintf("Loading utilities: %v", err))
		return result
	}
	byMeter := make(map[string]*models.Utility, len(existing))
	for _, u := range existing {
		if u.PMMeterID != "" {
			byMeter[u.PMMeterID] = u
		}
	}

	for _, remote := range accepted {
		u, found := byMeter[remote.meter.ID]
		if !found {
			u = &models.Utility{
				BuildingID: building.ID,
				Name:       remote.meter.Name,
				UtilType:   LocalType(remote.meter.Type),
				Units:      LocalUnit(remote.meter.UnitOfMeasure),
				PMMeterID:  remote.meter.ID,
				Source:     importSource,
			}
		}
		u.Readings = ReadingsFromMeterData(remote.data)
		if err = s.repository.SaveUtility(ctx, u); err != nil {
			result.Add(fmt.Sprintf("Meter %s: saving utility: %v", remote.meter.ID, err))
			continue
		}
		building.AddUtility(u.ID)
		building.RerunAnalyses = true
		counters.CountMeter("imported", string(u.UtilType))
	}

	if !firstImport {
		for _, u := range existing {
			if u.PMMeterID == "" || slices.Contains(meterIDs, u.PMMeterID) {
				continue
			}
			if err = s.repository.DeleteUtility(ctx, u.ID); err != nil {
				result.Add(fmt.Sprintf("Deleting utility %s: %v", u.Name, err))
				continue
			}
			if err = s.detachUtility(ctx, building, u.ID); err != nil {
				result.Add(fmt.Sprintf("Detaching utility %s: %v", u.Name, err))
			}
			result.Add(fmt.Sprintf("Removed utility %s, meter %s no longer exists", u.Name, u.PMMeterID))
		}
	}

	if err = s.saveBuilding(ctx, building); err != nil {
		result.Add(fmt.Sprintf("Saving building: %v", err))
	}
	result.Add(fmt.Sprintf("Imported %d of %d meters", len(accepted), len(meterIDs)))
	s.refreshAfterSync(ctx, building, propertyID, &result)
	s.event(featureImport, building.ID.Hex(), fmt.Sprintf("property %s: %d meters imported", propertyID, len(accepted)))
	return result
}

// fetchMeters loads detail and history of each meter concurrently. Meters with a unit
// that cannot be imported are returned as skip messages.
func (s *Service) fetchMeters(ctx context.Context, meterIDs []string, result *models.BuildingResult) ([]remoteMeter, []string) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []remoteMeter
		skipped  []string
	)
	for _, meterID := range meterIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remote, skip, err := s.fetchMeter(ctx, meterID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				counters.CountUtilityError(featureImport)
				result.Add(fmt.Sprintf("Meter %s: %s", meterID, describe(err)))
			case skip != "":
				skipped = append(skipped, skip)
			default:
				accepted = append(accepted, remote)
			}
		}()
	}
	wg.Wait()
	slices.SortFunc(accepted, func(a, b remoteMeter) int { return strings.Compare(a.meter.ID, b.meter.ID) })
	return accepted, skipped
}

func (s *Service) fetchMeter(ctx context.Context, meterID string) (remoteMeter, string, error) {
	meter, err := s.client.GetMeter(ctx, meterID)
	if err != nil {
		return remoteMeter{}, "", err
	}
	meter.ID = meterID
	if !UnitAllowed(meter.Type, meter.UnitOfMeasure) {
		return remoteMeter{}, fmt.Sprintf("meter %s (%s) uses unsupported unit %s", meterID, meter.Type, meter.UnitOfMeasure), nil
	}
	from := parseDate(meter.FirstBillDate)
	to := time.Now().UTC()
	if meter.InactiveDate != "" {
		to = parseDate(meter.InactiveDate)
	}
	data, err := s.client.GetConsumption(ctx, meterID, from, to)
	if err != nil {
		return remoteMeter{}, "", fmt.Errorf("loading readings: %w", err)
	}
	return remoteMeter{meter: meter, data: data}, "", nil
}
