package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"pmsync/internal"
	"pmsync/models"
)

const publishTimeout = 10 * time.Second

type publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Alerts publishes a message to an SNS topic when a sync job finishes.
type Alerts struct {
	svc      publisher
	topicArn string
	logger   internal.LogHandler
}

func NewAlerts(ctx context.Context, region, topicArn string) (*Alerts, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &Alerts{svc: sns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

func (a *Alerts) SetLogger(logger internal.LogHandler) {
	a.logger = logger
}

func (a *Alerts) OnJobUpdate(job models.SyncJob) {
	if job.Status != models.JobCompleted && job.Status != models.JobFailed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := a.Send(ctx, jobSubject(job), jobMessage(job)); err != nil && a.logger != nil {
		a.logger.Error("sns alert", err)
	}
}

func (a *Alerts) Send(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(a.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}
	result, err := a.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	if a.logger != nil {
		a.logger.Debug(fmt.Sprintf("sns alert sent: %s", aws.ToString(result.MessageId)))
	}
	return nil
}

func jobSubject(job models.SyncJob) string {
	return fmt.Sprintf("Portfolio Manager %s %s for %s", job.Kind, job.Status, job.OrgID)
}

func jobMessage(job models.SyncJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s job for organization %s %s.\n", job.Kind, job.OrgID, job.Status)
	if job.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", job.Error)
	}
	for _, result := range job.Result {
		name := result.Name
		if name == "" {
			name = result.BuildingID
		}
		fmt.Fprintf(&b, "\n%s (property %s)\n", name, result.PropertyID)
		for _, message := range result.Messages {
			fmt.Fprintf(&b, "  %s\n", message)
		}
	}
	return b.String()
}
