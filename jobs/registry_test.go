package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pmsync/models"
)

type recorder struct {
	mu       sync.Mutex
	statuses []models.JobStatus
}

func (r *recorder) OnJobUpdate(job models.SyncJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, job.Status)
}

func (r *recorder) SaveSyncJob(job *models.SyncJob) error {
	r.OnJobUpdate(*job)
	return nil
}

func TestStatusOfUnknownJobIsIdle(t *testing.T) {
	registry := NewRegistry()
	job := registry.Status("org", models.ImportJob)
	if job.Status != models.JobIdle || job.OrgID != "org" || job.Kind != models.ImportJob {
		t.Errorf("got %+v", job)
	}
}

func TestSecondStartWhileRunningIsRejected(t *testing.T) {
	registry := NewRegistry()
	release := make(chan struct{})
	run := func(ctx context.Context) ([]models.BuildingResult, error) {
		<-release
		return []models.BuildingResult{{BuildingID: "b1", Messages: []string{"done"}}}, nil
	}

	job, err := registry.Start(context.Background(), "org", models.ExportJob, run)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if job.Status != models.JobRunning {
		t.Errorf("first start status: got %s", job.Status)
	}
	if _, err = registry.Start(context.Background(), "org", models.ExportJob, run); !errors.Is(err, ErrJobRunning) {
		t.Errorf("second start: got %v, want ErrJobRunning", err)
	}
	if _, err = registry.Start(context.Background(), "org", models.ImportJob, run); err != nil {
		t.Errorf("other kind: got %v", err)
	}
	if n := len(registry.Running()); n != 2 {
		t.Errorf("running: got %d, want 2", n)
	}

	close(release)
	registry.Wait()

	job = registry.Status("org", models.ExportJob)
	if job.Status != models.JobCompleted || job.FinishedAt == nil || len(job.Result) != 1 {
		t.Errorf("finished job: got %+v", job)
	}
	if _, err = registry.Start(context.Background(), "org", models.ExportJob, run); err != nil {
		t.Errorf("restart after completion: %v", err)
	}
	registry.Wait()
}

func TestFailedJobKeepsError(t *testing.T) {
	registry := NewRegistry()
	listener := &recorder{}
	store := &recorder{}
	registry.AddListener(listener)
	registry.SetStore(store)

	_, err := registry.Start(context.Background(), "org", models.ImportJob, func(context.Context) ([]models.BuildingResult, error) {
		return nil, errors.New("no linked account")
	})
	if err != nil {
		t.Fatal(err)
	}
	registry.Wait()

	job := registry.Status("org", models.ImportJob)
	if job.Status != models.JobFailed || job.Error != "no linked account" {
		t.Errorf("got %+v", job)
	}
	want := []models.JobStatus{models.JobRunning, models.JobFailed}
	for name, r := range map[string]*recorder{"listener": listener, "store": store} {
		if len(r.statuses) != len(want) || r.statuses[0] != want[0] || r.statuses[1] != want[1] {
			t.Errorf("%s: got %v, want %v", name, r.statuses, want)
		}
	}
}

func TestJobSurvivesCallerCancellation(t *testing.T) {
	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	proceed := make(chan struct{})
	_, err := registry.Start(ctx, "org", models.ExportJob, func(ctx context.Context) ([]models.BuildingResult, error) {
		close(started)
		<-proceed
		return nil, ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started
	cancel()
	close(proceed)
	registry.Wait()

	if job := registry.Status("org", models.ExportJob); job.Status != models.JobCompleted {
		t.Errorf("got %+v", job)
	}
}

func TestLoadMarksInterruptedJobs(t *testing.T) {
	registry := NewRegistry()
	registry.Load([]*models.SyncJob{
		{OrgID: "a", Kind: models.ImportJob, Status: models.JobRunning},
		{OrgID: "b", Kind: models.ExportJob, Status: models.JobCompleted},
	})
	if job := registry.Status("a", models.ImportJob); job.Status != models.JobFailed || job.Error == "" {
		t.Errorf("interrupted job: got %+v", job)
	}
	if job := registry.Status("b", models.ExportJob); job.Status != models.JobCompleted {
		t.Errorf("completed job: got %+v", job)
	}
	if _, err := registry.Start(context.Background(), "a", models.ImportJob, func(context.Context) ([]models.BuildingResult, error) {
		return nil, nil
	}); err != nil {
		t.Errorf("start after load: %v", err)
	}
	registry.Wait()
}
