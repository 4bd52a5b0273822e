package portfolio

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pmsync/internal"
	"pmsync/models"
	"pmsync/pm"
	"pmsync/utility"
)

const (
	featureExport = "export"
	featureImport = "import"
	featureScore  = "score"
	featureLink   = "link"
)

type Repository interface {
	GetBuilding(ctx context.Context, id primitive.ObjectID) (*models.Building, error)
	GetBuildings(ctx context.Context, orgID string) ([]*models.Building, error)
	FindBuildingByLink(ctx context.Context, accountID, propertyID string) (*models.Building, error)
	SaveBuilding(ctx context.Context, building *models.Building) error
	GetUtility(ctx context.Context, id primitive.ObjectID) (*models.Utility, error)
	GetUtilities(ctx context.Context, ids []primitive.ObjectID) ([]*models.Utility, error)
	SaveUtility(ctx context.Context, utility *models.Utility) error
	DeleteUtility(ctx context.Context, id primitive.ObjectID) error
	GetPortfolioSync(ctx context.Context, accountID string) (*models.PortfolioSync, error)
	GetPortfolioSyncs(ctx context.Context, orgID string) ([]*models.PortfolioSync, error)
	SavePortfolioSync(ctx context.Context, portfolioSync *models.PortfolioSync) error
}

// Analyzer reruns the derived analyses of a building.
type Analyzer interface {
	Rerun(ctx context.Context, buildingID string) error
}

// Service reconciles local buildings and utilities with Portfolio Manager.
type Service struct {
	client     *pm.Client
	repository Repository
	analyzer   Analyzer
	logger     internal.LogHandler
	// buildings are saved from concurrent branches
	saveMu sync.Mutex
}

func NewService(client *pm.Client, repository Repository) *Service {
	return &Service{client: client, repository: repository}
}

func (s *Service) SetAnalyzer(analyzer Analyzer) {
	s.analyzer = analyzer
}

func (s *Service) SetLogger(logger internal.LogHandler) {
	s.logger = logger
}

func (s *Service) event(feature, id, text string) {
	if s.logger != nil {
		s.logger.FeatureEvent(feature, id, text)
	}
}

func (s *Service) warn(text string) {
	if s.logger != nil {
		s.logger.Warn(text)
	}
}

func (s *Service) saveBuilding(ctx context.Context, building *models.Building) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.repository.SaveBuilding(ctx, building)
}

// DeleteUtility removes a utility, its remote meter and its place on the building.
func (s *Service) DeleteUtility(ctx context.Context, id primitive.ObjectID) error {
	util, err := s.repository.GetUtility(ctx, id)
	if err != nil {
		return err
	}
	if util.PMMeterID != "" {
		if err = s.client.DeleteMeter(ctx, util.PMMeterID); err != nil && !pm.IsNotFound(err) {
			return fmt.Errorf("deleting meter %s: %w", util.PMMeterID, err)
		}
	}
	if err = s.repository.DeleteUtility(ctx, id); err != nil {
		return err
	}
	if util.BuildingID.IsZero() {
		return nil
	}
	building, err := s.repository.GetBuilding(ctx, util.BuildingID)
	if err != nil {
		return err
	}
	if err = s.detachUtility(ctx, building, id); err != nil {
		return err
	}
	return s.saveBuilding(ctx, building)
}

// detachUtility drops the utility from the building and prunes models of fuel types
// no longer present among the remaining utilities.
func (s *Service) detachUtility(ctx context.Context, building *models.Building, id primitive.ObjectID) error {
	if !building.RemoveUtility(id) {
		return nil
	}
	building.RerunAnalyses = true
	remaining, err := s.repository.GetUtilities(ctx, building.UtilityIDs)
	if err != nil {
		return err
	}
	present := make([]models.UtilType, 0, len(remaining))
	for _, u := range remaining {
		present = append(present, u.UtilType)
	}
	building.PruneChangePointModels(utility.Unique(present))
	return nil
}

// RerunAnalyses asks the analysis service to recompute flagged buildings and clears
// the flag for each one that succeeded.
func (s *Service) RerunAnalyses(ctx context.Context, buildings []*models.Building) {
	if s.analyzer == nil {
		return
	}
	for _, building := range buildings {
		if !building.RerunAnalyses {
			continue
		}
		if err := s.analyzer.Rerun(ctx, building.ID.Hex()); err != nil {
			s.warn(fmt.Sprintf("rerun analyses for %s: %v", building.ID.Hex(), err))
			continue
		}
		building.RerunAnalyses = false
		if err := s.saveBuilding(ctx, building); err != nil {
			s.warn(fmt.Sprintf("save building %s: %v", building.ID.Hex(), err))
		}
	}
}
