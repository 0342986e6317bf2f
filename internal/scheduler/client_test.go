package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type stubSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c stubSchedulerConfig) GetRedisURL() string                  { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool            { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string            { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int             { return 1 }
func (c stubSchedulerConfig) GetOverdueSweepInterval() time.Duration { return time.Minute }

func setupClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	client, err := NewClient(stubSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "workflow"})
	if err != nil {
		mr.Close()
		t.Fatalf("NewClient: %v", err)
	}
	return client, mr
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error for empty redis url")
	}
}

func TestScheduleDistributionRetry(t *testing.T) {
	client, mr := setupClient(t)
	defer mr.Close()
	defer client.Close()

	cardID := uuid.New()
	runAt := time.Now().Add(5 * time.Minute)
	if err := client.ScheduleDistributionRetry(context.Background(), cardID, runAt); err != nil {
		t.Fatalf("ScheduleDistributionRetry: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("workflow")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("scheduled = %d, want 1", len(scheduled))
	}
	if scheduled[0].Type != TaskDistributionRetry {
		t.Errorf("type = %q, want %q", scheduled[0].Type, TaskDistributionRetry)
	}

	payload, err := ParseDistributionRetryPayload(asynq.NewTask(scheduled[0].Type, scheduled[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.CardID != cardID.String() {
		t.Errorf("cardID = %q, want %q", payload.CardID, cardID)
	}
}

func TestScheduleRecontact(t *testing.T) {
	client, mr := setupClient(t)
	defer mr.Close()
	defer client.Close()

	cardID := uuid.New()
	if err := client.ScheduleRecontact(context.Background(), cardID, time.Now().Add(48*time.Hour)); err != nil {
		t.Fatalf("ScheduleRecontact: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("workflow")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 || scheduled[0].Type != TaskRecontactDue {
		t.Fatalf("scheduled = %+v, want one recontact task", scheduled)
	}
}
