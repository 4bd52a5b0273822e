package portfolio

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"pmsync/metrics/counters"
	"pmsync/models"
	"pmsync/pm"
	"pmsync/utility"
)

const invalidMeterMessage = "meter type or unit of measure is invalid"

var ErrNoAccount = utility.Err("organization has no linked Portfolio Manager account")

// describe turns a remote failure into the message kept in the building log.
func describe(err error) string {
	if pm.IsInvalidMeter(err) {
		return invalidMeterMessage
	}
	return err.Error()
}

type exportedMeter struct {
	id       string
	utilType models.UtilType
}

// ExportOrganization pushes every building of the organization to Portfolio Manager.
// Linked buildings go to the account they are linked with; unlinked ones are created
// under the first account the organization can use.
func (s *Service) ExportOrganization(ctx context.Context, orgID string) ([]models.BuildingResult, error) {
	syncs, err := s.repository.GetPortfolioSyncs(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if len(syncs) == 0 {
		return nil, ErrNoAccount
	}
	buildings, err := s.repository.GetBuildings(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("loading buildings: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.BuildingResult
	)
	for _, building := range buildings {
		accounts := linkedAccounts(building, syncs)
		if len(accounts) == 0 {
			accounts = []string{syncs[0].AccountID}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, accountID := range accounts {
				result := s.ExportBuilding(ctx, accountID, building)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.RerunAnalyses(ctx, buildings)
	return results, nil
}

func linkedAccounts(building *models.Building, syncs []*models.PortfolioSync) []string {
	var accounts []string
	for _, link := range building.EnergystarIDs {
		for _, ps := range syncs {
			if ps.AccountID == link.AccountID && !slices.Contains(accounts, link.AccountID) {
				accounts = append(accounts, link.AccountID)
			}
		}
	}
	return accounts
}

// ExportBuilding pushes one building and its utilities to a property of the account.
// Failures are recorded in the result; one utility failing does not stop the others.
func (s *Service) ExportBuilding(ctx context.Context, accountID string, building *models.Building) models.BuildingResult {
	result := models.BuildingResult{BuildingID: building.ID.Hex(), Name: building.Name}

	propertyID, created, err := s.syncProperty(ctx, accountID, building)
	if err != nil {
		result.Add(describe(err))
		counters.CountUtilityError(featureExport)
		return result
	}
	result.PropertyID = propertyID
	if created {
		result.Add(fmt.Sprintf("Created property %s", propertyID))
	}

	if err = s.syncPropertyUses(ctx, building, propertyID, &result); err != nil {
		result.Add(describe(err))
	}
	s.syncIdentifiers(ctx, building, propertyID, &result)

	utilities, err := s.repository.GetUtilities(ctx, building.UtilityIDs)
	if err != nil {
		result.Add(fmt.Sprintf("Loading utilities: %v", err))
		// the property link and identifier ids must survive
		if err = s.saveBuilding(ctx, building); err != nil {
			result.Add(fmt.Sprintf("Saving building: %v", err))
		}
		return result
	}

	if !created {
		s.deleteOrphanMeters(ctx, propertyID, utilities, &result)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		meters []exportedMeter
	)
	for _, u := range utilities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meterID, message, err := s.exportUtility(ctx, propertyID, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				counters.CountUtilityError(featureExport)
				result.Add(fmt.Sprintf("Utility %s: %s", u.Name, describe(err)))
				return
			}
			result.Add(fmt.Sprintf("Utility %s: %s", u.Name, message))
			meters = append(meters, exportedMeter{id: meterID, utilType: u.UtilType})
		}()
	}
	wg.Wait()

	if len(meters) > 0 {
		if err = s.client.AssociateMeters(ctx, propertyID, associations(meters)); err != nil {
			result.Add(fmt.Sprintf("Associating meters: %s", describe(err)))
		}
	}

	if err = s.saveBuilding(ctx, building); err != nil {
		result.Add(fmt.Sprintf("Saving building: %v", err))
	}
	s.refreshAfterSync(ctx, building, propertyID, &result)
	s.event(featureExport, building.ID.Hex(), fmt.Sprintf("property %s: %d meters exported", propertyID, len(meters)))
	return result
}

// deleteOrphanMeters removes remote meters that no local utility points at.
func (s *Service) deleteOrphanMeters(ctx context.Context, propertyID string, utilities []*models.Utility, result *models.BuildingResult) {
	remote, err := s.client.ListMeters(ctx, propertyID)
	if err != nil {
		result.Add(fmt.Sprintf("Listing meters: %s", describe(err)))
		return
	}
	known := make([]string, 0, len(utilities))
	for _, u := range utilities {
		if u.PMMeterID != "" {
			known = append(known, u.PMMeterID)
		}
	}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, meterID := range remote {
		if slices.Contains(known, meterID) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.client.DeleteMeter(ctx, meterID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Add(fmt.Sprintf("Deleting meter %s: %s", meterID, describe(err)))
				return
			}
			counters.CountMeter("deleted", "unknown")
			result.Add(fmt.Sprintf("Deleted meter %s", meterID))
		}()
	}
	wg.Wait()
}

// exportUtility creates or updates the remote meter of the utility and replaces its
// readings. It returns the meter id and a summary line.
func (s *Service) exportUtility(ctx context.Context, propertyID string, u *models.Utility) (string, string, error) {
	meterType, unit := MeterType(u)
	firstBill, ok := u.Readings.FirstBillDate()
	if !ok {
		firstBill = time.Now().UTC()
	}
	name := u.Name
	if name == "" {
		name = u.MeterNumber
	}
	meter := &pm.Meter{
		Type:          meterType,
		Name:          name,
		UnitOfMeasure: unit,
		Metered:       u.Readings.Kind() == models.ConsumptionKind,
		FirstBillDate: firstBill.Format(pm.DateLayout),
		InUse:         true,
	}

	exists, err := s.client.MeterExists(ctx, u.PMMeterID)
	if err != nil {
		return "", "", err
	}

	action := "updated"
	if exists {
		if err = s.client.UpdateMeter(ctx, u.PMMeterID, meter); err != nil {
			return "", "", err
		}
		if err = s.client.DeleteConsumption(ctx, u.PMMeterID); err != nil {
			return "", "", fmt.Errorf("clearing readings: %w", err)
		}
	} else {
		id, err := s.client.CreateMeter(ctx, propertyID, meter)
		if err != nil {
			return "", "", err
		}
		u.PMMeterID = id
		if err = s.repository.SaveUtility(ctx, u); err != nil {
			return "", "", fmt.Errorf("saving meter id: %w", err)
		}
		action = "created"
	}
	counters.CountMeter(action, string(u.UtilType))

	uploaded := 0
	for batch := range Batches(u.Readings, BatchSize) {
		if err = s.client.PostConsumption(ctx, u.PMMeterID, batch); err != nil {
			return "", "", fmt.Errorf("uploading readings after %d: %w", uploaded, err)
		}
		uploaded += len(batch.Consumption) + len(batch.Delivery)
	}
	counters.CountReadings(string(u.UtilType), uploaded)

	return u.PMMeterID, fmt.Sprintf("%s meter %s, %d readings uploaded", action, u.PMMeterID, uploaded), nil
}

func associations(meters []exportedMeter) *pm.MeterAssociationList {
	list := &pm.MeterAssociationList{}
	for _, m := range meters {
		if isEnergy(m.utilType) {
			if list.Energy == nil {
				list.Energy = &pm.MeterAssociation{PropertyRepresentation: pm.PropertyRepresentation{Type: "Whole Property"}}
			}
			list.Energy.MeterIDs = append(list.Energy.MeterIDs, m.id)
			continue
		}
		if list.Water == nil {
			list.Water = &pm.MeterAssociation{PropertyRepresentation: pm.PropertyRepresentation{Type: "Whole Property"}}
		}
		list.Water.MeterIDs = append(list.Water.MeterIDs, m.id)
	}
	return list
}
