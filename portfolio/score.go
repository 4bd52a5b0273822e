package portfolio

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"pmsync/models"
)

// YearRange returns every year from the earliest to the latest year referenced by
// the readings of the utilities.
func YearRange(utilities []*models.Utility) []int {
	var years []int
	for _, u := range utilities {
		years = append(years, u.Readings.Years()...)
	}
	if len(years) == 0 {
		return nil
	}
	first, last := slices.Min(years), slices.Max(years)
	span := make([]int, 0, last-first+1)
	for year := first; year <= last; year++ {
		span = append(span, year)
	}
	return span
}

// RefreshScores fetches the score of every year covered by the building's utilities
// and replaces the stored benchmark when anything came back.
func (s *Service) RefreshScores(ctx context.Context, building *models.Building, propertyID string) ([]models.PMScore, error) {
	utilities, err := s.repository.GetUtilities(ctx, building.UtilityIDs)
	if err != nil {
		return nil, fmt.Errorf("loading utilities: %w", err)
	}
	years := YearRange(utilities)

	scores := make([]models.PMScore, len(years))
	var wg sync.WaitGroup
	for i, year := range years {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scores[i] = s.yearScore(ctx, propertyID, year)
		}()
	}
	wg.Wait()

	if len(scores) == 0 {
		return scores, nil
	}
	building.Benchmark.PMScores = scores
	if err = s.saveBuilding(ctx, building); err != nil {
		return scores, fmt.Errorf("saving scores: %w", err)
	}
	s.event(featureScore, building.ID.Hex(), fmt.Sprintf("property %s: %d years scored", propertyID, len(scores)))
	return scores, nil
}

func (s *Service) yearScore(ctx context.Context, propertyID string, year int) models.PMScore {
	entry := models.PMScore{Year: year, Reasons: []models.ScoreReason{}}
	score, err := s.client.Score(ctx, propertyID, year)
	if err != nil {
		entry.Reasons = append(entry.Reasons, models.ScoreReason{Name: "Score unavailable", Description: describe(err)})
		return entry
	}
	if score != nil {
		entry.Score = *score
		return entry
	}
	alerts, err := s.client.ReasonsForNoScore(ctx, propertyID, year)
	if err != nil {
		entry.Reasons = append(entry.Reasons, models.ScoreReason{Name: "Reasons unavailable", Description: describe(err)})
		return entry
	}
	for _, alert := range alerts {
		entry.Reasons = append(entry.Reasons, models.ScoreReason{Name: alert.Name, Description: alert.Description})
	}
	return entry
}

// refreshAfterSync runs the score refresh that follows every import or export pass.
func (s *Service) refreshAfterSync(ctx context.Context, building *models.Building, propertyID string, result *models.BuildingResult) {
	scores, err := s.RefreshScores(ctx, building, propertyID)
	if err != nil {
		result.Add(fmt.Sprintf("Score refresh: %v", err))
		return
	}
	if len(scores) > 0 {
		result.Add(fmt.Sprintf("Refreshed scores for %d-%d", scores[0].Year, scores[len(scores)-1].Year))
	}
}

// RefreshBuilding refreshes the scores of every property the building is linked to.
func (s *Service) RefreshBuilding(ctx context.Context, building *models.Building) ([]models.PMScore, error) {
	var scores []models.PMScore
	for _, link := range building.EnergystarIDs {
		result, err := s.RefreshScores(ctx, building, link.BuildingID)
		if err != nil {
			return scores, fmt.Errorf("property %s: %w", link.BuildingID, err)
		}
		scores = result
	}
	return scores, nil
}
