package scheduler

import (
	"context"
	"fmt"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/pipeline/repository"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Distributor assigns an owner to a card that was created while the team was
// saturated. Implemented by the pipeline service.
type Distributor interface {
	DistributeUnassigned(ctx context.Context, cardID uuid.UUID) error
}

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	repo        *repository.Repository
	distributor Distributor
	bus         events.Bus
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, distributor Distributor, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		repo:        repository.New(pool),
		distributor: distributor,
		bus:         bus,
		log:         log,
	}

	mux.HandleFunc(TaskDistributionRetry, w.handleDistributionRetry)
	mux.HandleFunc(TaskRecontactDue, w.handleRecontactDue)

	return w, nil
}

func (w *Worker) handleDistributionRetry(ctx context.Context, task *asynq.Task) error {
	if w.distributor == nil {
		return nil
	}

	payload, err := ParseDistributionRetryPayload(task)
	if err != nil {
		return err
	}

	cardID, err := uuid.Parse(payload.CardID)
	if err != nil {
		return err
	}

	return w.distributor.DistributeUnassigned(ctx, cardID)
}

func (w *Worker) handleRecontactDue(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseRecontactDuePayload(task)
	if err != nil {
		return err
	}

	cardID, err := uuid.Parse(payload.CardID)
	if err != nil {
		return err
	}

	card, err := w.repo.GetCard(ctx, cardID)
	if err != nil {
		return err
	}

	// card moved on before the recontact date arrived
	if card.Stage.IsTerminal() || card.ScheduledRecontact == nil {
		return nil
	}

	w.bus.Publish(ctx, events.RecontactDue{
		BaseEvent: events.NewBaseEvent(),
		CardID:    card.ID,
		AgentID:   card.CurrentAgentID,
	})

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
