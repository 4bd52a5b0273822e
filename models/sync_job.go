package models

import "time"

type JobKind string

const (
	ImportJob JobKind = "import"
	ExportJob JobKind = "export"
)

type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// SyncJob is the last known state of a bulk import or export for one organization.
type SyncJob struct {
	OrgID      string           `json:"org_id" bson:"org_id"`
	Kind       JobKind          `json:"kind" bson:"kind"`
	Status     JobStatus        `json:"status" bson:"status"`
	Result     []BuildingResult `json:"result" bson:"result"`
	Error      string           `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at" bson:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// BuildingResult is the per-building message log of a sync pass.
type BuildingResult struct {
	BuildingID string   `json:"building_id" bson:"building_id" yaml:"building_id"`
	PropertyID string   `json:"property_id" bson:"property_id" yaml:"property_id"`
	Name       string   `json:"name" bson:"name" yaml:"name"`
	Messages   []string `json:"messages" bson:"messages" yaml:"messages"`
}

func (r *BuildingResult) Add(message string) {
	r.Messages = append(r.Messages, message)
}

func (j *SyncJob) DataType() string {
	return "syncJob"
}
