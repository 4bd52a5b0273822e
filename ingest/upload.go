package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pmsync/internal"
	"pmsync/models"
	"pmsync/utility"
)

const featureUpload = "upload"

type Repository interface {
	GetBuilding(ctx context.Context, id primitive.ObjectID) (*models.Building, error)
	SaveBuilding(ctx context.Context, building *models.Building) error
	SaveUtility(ctx context.Context, utility *models.Utility) error
}

// Archive keeps a copy of every accepted upload.
type Archive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Request struct {
	BuildingID primitive.ObjectID
	UtilType   models.UtilType
	Kind       models.ReadingKind
	UserID     string
	File       File
}

type Result struct {
	Utility  *models.Utility
	Building *models.Building
	Warnings []string
}

type Service struct {
	repository Repository
	archive    Archive
	logger     internal.LogHandler
}

func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

func (s *Service) SetArchive(archive Archive) {
	s.archive = archive
}

func (s *Service) SetLogger(logger internal.LogHandler) {
	s.logger = logger
}

// Upload validates the file, stores its readings as a new utility of the building
// and flags the building for analysis. Validation failures are returned unwrapped
// so IsValidation can classify them.
func (s *Service) Upload(ctx context.Context, req *Request) (*Result, error) {
	rows, err := ReadFile(req.File.Name, req.File.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	layout := NewLayout(req.Kind, req.UtilType)
	warnings, err := Validate(rows, layout)
	if err != nil {
		return nil, err
	}

	building, err := s.repository.GetBuilding(ctx, req.BuildingID)
	if err != nil {
		return nil, fmt.Errorf("loading building %s: %w", req.BuildingID.Hex(), err)
	}

	record := &models.Utility{
		BuildingID:      building.ID,
		Name:            utilityName(req.File.Name, req.UtilType),
		Source:          "upload",
		Units:           models.DefaultUnits(req.UtilType),
		UtilType:        req.UtilType,
		CreatedByUserID: req.UserID,
		Readings:        Transform(rows, layout),
	}
	if err = s.repository.SaveUtility(ctx, record); err != nil {
		return nil, fmt.Errorf("saving utility: %w", err)
	}

	building.AddUtility(record.ID)
	building.RerunAnalyses = true
	if err = s.repository.SaveBuilding(ctx, building); err != nil {
		return nil, fmt.Errorf("saving building: %w", err)
	}

	if s.archive != nil {
		key := fmt.Sprintf("%s/%s/%s%s", building.ID.Hex(), record.ID.Hex(), utility.NewUUID(), path.Ext(req.File.Name))
		if err = s.archive.Put(ctx, key, req.File.ContentType, req.File.Data); err != nil && s.logger != nil {
			s.logger.Warn(fmt.Sprintf("archive upload %s: %v", key, err))
		}
	}
	if s.logger != nil {
		s.logger.FeatureEvent(featureUpload, building.ID.Hex(), fmt.Sprintf("%s %s: %d readings, %d warnings", req.UtilType, req.Kind, record.Readings.Len(), len(warnings)))
	}

	return &Result{Utility: record, Building: building, Warnings: warnings}, nil
}

func utilityName(fileName string, utilType models.UtilType) string {
	name := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	if name == "" || name == "." || name == "/" {
		return string(utilType)
	}
	return name
}
