package jobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"pmsync/internal"
	"pmsync/metrics/counters"
	"pmsync/models"
	"pmsync/utility"
)

var ErrJobRunning = utility.Err("job is already running")

// Runner performs the work of one job and returns the per-building log.
type Runner func(ctx context.Context) ([]models.BuildingResult, error)

// Listener receives a snapshot every time a job changes state.
type Listener interface {
	OnJobUpdate(job models.SyncJob)
}

type Store interface {
	SaveSyncJob(job *models.SyncJob) error
}

type key struct {
	orgID string
	kind  models.JobKind
}

// Registry tracks one bulk job per organization and kind. A job is started in the
// background and polled through Status.
type Registry struct {
	mu        sync.Mutex
	jobs      map[key]*models.SyncJob
	store     Store
	listeners []Listener
	logger    internal.LogHandler
	wg        sync.WaitGroup
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[key]*models.SyncJob)}
}

func (r *Registry) SetStore(store Store) {
	r.store = store
}

func (r *Registry) SetLogger(logger internal.LogHandler) {
	r.logger = logger
}

func (r *Registry) AddListener(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// Load restores persisted snapshots. Jobs that were running when the process stopped
// are marked failed.
func (r *Registry) Load(saved []*models.SyncJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range saved {
		if job.Status == models.JobRunning {
			now := time.Now().UTC()
			job.Status = models.JobFailed
			job.Error = "interrupted by restart"
			job.FinishedAt = &now
		}
		r.jobs[key{job.OrgID, job.Kind}] = job
	}
}

// Start launches run unless the same job is still running. The job outlives the
// caller's context cancellation.
func (r *Registry) Start(ctx context.Context, orgID string, kind models.JobKind, run Runner) (models.SyncJob, error) {
	k := key{orgID, kind}
	r.mu.Lock()
	if current, ok := r.jobs[k]; ok && current.Status == models.JobRunning {
		snapshot := copyJob(current)
		r.mu.Unlock()
		return snapshot, ErrJobRunning
	}
	job := &models.SyncJob{
		OrgID:     orgID,
		Kind:      kind,
		Status:    models.JobRunning,
		Result:    []models.BuildingResult{},
		StartedAt: time.Now().UTC(),
	}
	r.jobs[k] = job
	snapshot := copyJob(job)
	r.observe(kind)
	r.mu.Unlock()

	counters.CountJob(string(kind), string(models.JobRunning))
	r.publish(snapshot)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		results, err := run(context.WithoutCancel(ctx))
		r.finish(k, results, err)
	}()
	return snapshot, nil
}

func (r *Registry) finish(k key, results []models.BuildingResult, err error) {
	now := time.Now().UTC()
	r.mu.Lock()
	job := r.jobs[k]
	job.FinishedAt = &now
	if results != nil {
		job.Result = results
	}
	job.Status = models.JobCompleted
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
	}
	snapshot := copyJob(job)
	r.observe(k.kind)
	r.mu.Unlock()

	counters.CountJob(string(k.kind), string(snapshot.Status))
	if err != nil && r.logger != nil {
		r.logger.Error(fmt.Sprintf("%s job for %s", k.kind, k.orgID), err)
	}
	if r.logger != nil {
		r.logger.FeatureEvent(string(k.kind), k.orgID, fmt.Sprintf("job %s: %d buildings", snapshot.Status, len(snapshot.Result)))
	}
	r.publish(snapshot)
}

// Status returns the last snapshot of the job, or an idle one if it never ran.
func (r *Registry) Status(orgID string, kind models.JobKind) models.SyncJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[key{orgID, kind}]
	if !ok {
		return models.SyncJob{OrgID: orgID, Kind: kind, Status: models.JobIdle, Result: []models.BuildingResult{}}
	}
	return copyJob(job)
}

// Running lists the snapshots of all jobs currently in progress.
func (r *Registry) Running() []models.SyncJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	var running []models.SyncJob
	for _, job := range r.jobs {
		if job.Status == models.JobRunning {
			running = append(running, copyJob(job))
		}
	}
	slices.SortFunc(running, func(a, b models.SyncJob) int { return a.StartedAt.Compare(b.StartedAt) })
	return running
}

// Wait blocks until every started job has finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// observe updates the running gauge; the caller holds the lock.
func (r *Registry) observe(kind models.JobKind) {
	count := 0
	for k, job := range r.jobs {
		if k.kind == kind && job.Status == models.JobRunning {
			count++
		}
	}
	counters.ObserveRunningJobs(string(kind), count)
}

func (r *Registry) publish(job models.SyncJob) {
	if r.store != nil {
		if err := r.store.SaveSyncJob(&job); err != nil && r.logger != nil {
			r.logger.Error("saving sync job", err)
		}
	}
	r.mu.Lock()
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()
	for _, listener := range listeners {
		listener.OnJobUpdate(job)
	}
}

func copyJob(job *models.SyncJob) models.SyncJob {
	snapshot := *job
	snapshot.Result = slices.Clone(job.Result)
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		snapshot.FinishedAt = &finished
	}
	return snapshot
}
