package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pmsync/ingest"
	"pmsync/internal"
	"pmsync/jobs"
	"pmsync/metrics/counters"
	"pmsync/models"
)

const (
	statusSuccess = "Success"
	statusError   = "Error"
	fileField     = "file"
)

var allowedTypes = []string{
	"text/csv",
	"application/csv",
	"application/vnd.ms-excel",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type Uploader interface {
	Upload(ctx context.Context, req *ingest.Request) (*ingest.Result, error)
}

// Portfolio is the Portfolio Manager reconciliation surface the API exposes.
type Portfolio interface {
	DeleteUtility(ctx context.Context, id primitive.ObjectID) error
	ImportOrganization(ctx context.Context, orgID string) ([]models.BuildingResult, error)
	ExportOrganization(ctx context.Context, orgID string) ([]models.BuildingResult, error)
	LinkAccount(ctx context.Context, orgID, accountID string) (*models.PortfolioSync, error)
	RefreshBuilding(ctx context.Context, building *models.Building) ([]models.PMScore, error)
}

type Buildings interface {
	GetBuilding(ctx context.Context, id primitive.ObjectID) (*models.Building, error)
}

// LogReader returns the most recent service log entries, newest first.
type LogReader interface {
	ReadLog() ([]internal.FeatureLogMessage, error)
}

type Api struct {
	uploader  Uploader
	portfolio Portfolio
	buildings Buildings
	jobs      *jobs.Registry
	log       LogReader
	maxBytes  int64
	logger    internal.LogHandler
}

type response struct {
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Errors   []string         `json:"errors,omitempty"`
	Utility  *models.Utility  `json:"utility,omitempty"`
	Building *models.Building `json:"building,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

func NewApi(uploader Uploader, portfolio Portfolio, buildings Buildings, registry *jobs.Registry, maxBytes int64) *Api {
	return &Api{
		uploader:  uploader,
		portfolio: portfolio,
		buildings: buildings,
		jobs:      registry,
		maxBytes:  maxBytes,
	}
}

func (a *Api) SetLogger(logger internal.LogHandler) {
	a.logger = logger
}

func (a *Api) SetLogReader(reader LogReader) {
	a.log = reader
}

func (a *Api) Register(router *httprouter.Router) {
	router.GET("/log", a.readLog)
	router.POST("/buildings/:id/utilities/upload", a.upload)
	router.POST("/buildings/:id/scores", a.refreshScores)
	router.DELETE("/utilities/:id", a.deleteUtility)
	router.POST("/organizations/:org/portfolio/:kind", a.portfolioJob)
	router.POST("/organizations/:org/accounts/:account", a.linkAccount)
}

func (a *Api) upload(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	buildingID, err := primitive.ObjectIDFromHex(params.ByName("id"))
	if err != nil {
		a.fail(w, http.StatusBadRequest, "invalid building id")
		return
	}
	query := r.URL.Query()
	utilType, ok := models.ParseUtilType(query.Get("utilType"))
	if !ok {
		a.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid utilType %q", query.Get("utilType")))
		return
	}
	kind, ok := models.ParseReadingKind(query.Get("consumptionOrDelivery"))
	if !ok {
		a.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid consumptionOrDelivery %q", query.Get("consumptionOrDelivery")))
		return
	}
	if r.ContentLength > a.maxBytes {
		a.fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", a.maxBytes))
		return
	}

	file, err := a.readUpload(w, r)
	if err != nil {
		counters.CountUpload(string(utilType), "rejected")
		a.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.uploader.Upload(r.Context(), &ingest.Request{
		BuildingID: buildingID,
		UtilType:   utilType,
		Kind:       kind,
		UserID:     r.Header.Get("X-User-ID"),
		File:       *file,
	})
	switch {
	case ingest.IsValidation(err):
		counters.CountUpload(string(utilType), "invalid")
		a.writeJSON(w, http.StatusBadRequest, response{Status: statusError, Message: err.Error(), Errors: []string{err.Error()}})
		return
	case errors.Is(err, internal.ErrNotFound):
		a.fail(w, http.StatusNotFound, "building not found")
		return
	case err != nil:
		counters.CountUpload(string(utilType), "failed")
		a.internalError(w, "upload", err)
		return
	}
	counters.CountUpload(string(utilType), "accepted")
	a.writeJSON(w, http.StatusOK, response{
		Status:   statusSuccess,
		Message:  fmt.Sprintf("Uploaded %d readings", result.Utility.Readings.Len()),
		Utility:  result.Utility,
		Building: result.Building,
		Warnings: result.Warnings,
	})
}

// readUpload enforces the single file, size and content type limits.
func (a *Api) readUpload(w http.ResponseWriter, r *http.Request) (*ingest.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBytes)
	if err := r.ParseMultipartForm(a.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("file exceeds %d bytes", a.maxBytes)
		}
		return nil, fmt.Errorf("reading multipart form: %w", err)
	}
	count := 0
	for _, files := range r.MultipartForm.File {
		count += len(files)
	}
	files := r.MultipartForm.File[fileField]
	if count != 1 || len(files) != 1 {
		return nil, fmt.Errorf("expected exactly one file in field %q", fileField)
	}
	header := files[0]
	contentType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !slices.Contains(allowedTypes, contentType) {
		return nil, fmt.Errorf("unsupported file type %q", header.Header.Get("Content-Type"))
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return &ingest.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

func (a *Api) deleteUtility(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, err := primitive.ObjectIDFromHex(params.ByName("id"))
	if err != nil {
		a.fail(w, http.StatusBadRequest, "invalid utility id")
		return
	}
	err = a.portfolio.DeleteUtility(r.Context(), id)
	if errors.Is(err, internal.ErrNotFound) {
		a.fail(w, http.StatusNotFound, "utility not found")
		return
	}
	if err != nil {
		a.internalError(w, "delete utility", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// portfolioJob starts a bulk import or export with run=true, otherwise reports the
// last known state of the job.
func (a *Api) portfolioJob(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	orgID := params.ByName("org")
	var run jobs.Runner
	kind := models.JobKind(params.ByName("kind"))
	switch kind {
	case models.ImportJob:
		run = func(ctx context.Context) ([]models.BuildingResult, error) {
			return a.portfolio.ImportOrganization(ctx, orgID)
		}
	case models.ExportJob:
		run = func(ctx context.Context) ([]models.BuildingResult, error) {
			return a.portfolio.ExportOrganization(ctx, orgID)
		}
	default:
		a.fail(w, http.StatusNotFound, fmt.Sprintf("unknown job %q", kind))
		return
	}

	if r.URL.Query().Get("run") != "true" {
		a.writeJSON(w, http.StatusOK, a.jobs.Status(orgID, kind))
		return
	}
	job, err := a.jobs.Start(r.Context(), orgID, kind, run)
	if errors.Is(err, jobs.ErrJobRunning) {
		a.writeJSON(w, http.StatusConflict, job)
		return
	}
	if err != nil {
		a.internalError(w, "start job", err)
		return
	}
	a.writeJSON(w, http.StatusAccepted, job)
}

func (a *Api) linkAccount(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	link, err := a.portfolio.LinkAccount(r.Context(), params.ByName("org"), params.ByName("account"))
	if err != nil {
		a.internalError(w, "link account", err)
		return
	}
	a.writeJSON(w, http.StatusOK, link)
}

func (a *Api) refreshScores(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, err := primitive.ObjectIDFromHex(params.ByName("id"))
	if err != nil {
		a.fail(w, http.StatusBadRequest, "invalid building id")
		return
	}
	building, err := a.buildings.GetBuilding(r.Context(), id)
	if errors.Is(err, internal.ErrNotFound) {
		a.fail(w, http.StatusNotFound, "building not found")
		return
	}
	if err != nil {
		a.internalError(w, "load building", err)
		return
	}
	scores, err := a.portfolio.RefreshBuilding(r.Context(), building)
	if err != nil {
		a.internalError(w, "refresh scores", err)
		return
	}
	if scores == nil {
		scores = []models.PMScore{}
	}
	a.writeJSON(w, http.StatusOK, scores)
}

func (a *Api) readLog(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if a.log == nil {
		a.fail(w, http.StatusNotFound, "log is not available")
		return
	}
	messages, err := a.log.ReadLog()
	if err != nil {
		a.internalError(w, "read log", err)
		return
	}
	if messages == nil {
		messages = []internal.FeatureLogMessage{}
	}
	a.writeJSON(w, http.StatusOK, messages)
}

func (a *Api) fail(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, response{Status: statusError, Message: message})
}

func (a *Api) internalError(w http.ResponseWriter, action string, err error) {
	if a.logger != nil {
		a.logger.Error(fmt.Sprintf("api: %s", action), err)
	}
	a.fail(w, http.StatusInternalServerError, err.Error())
}

func (a *Api) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && a.logger != nil {
		a.logger.Warn(fmt.Sprintf("api: error writing response: %v", err))
	}
}
