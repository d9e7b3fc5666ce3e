package background

import (
	"context"
	"log"
	"sync"
	"time"

	"freightdesk/internal/config"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobScheduler manages periodic background jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	subSvc      services.SubscriptionServiceInterface
	loadRepo    repositories.LoadRepository
	distributor services.TaskDistributor
	sweeps      config.SweepConfig
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(subSvc services.SubscriptionServiceInterface, loadRepo repositories.LoadRepository,
	distributor services.TaskDistributor, sweeps config.SweepConfig) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		subSvc:      subSvc,
		loadRepo:    loadRepo,
		distributor: distributor,
		sweeps:      sweeps,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	subJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.sweeps.SubscriptionInterval.Duration),
		gocron.NewTask(js.sweepExpiredSubscriptions, context.Background()),
		gocron.WithName("subscription-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create subscription sweep job: %v", err)
	} else {
		js.mu.Lock()
		js.jobs["subscription-sweep"] = subJob
		js.mu.Unlock()
	}

	staleJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.sweeps.StaleLoadInterval.Duration),
		gocron.NewTask(js.sweepStaleLoads, context.Background()),
		gocron.WithName("stale-load-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create stale load sweep job: %v", err)
	} else {
		js.mu.Lock()
		js.jobs["stale-load-sweep"] = staleJob
		js.mu.Unlock()
	}
}

// sweepExpiredSubscriptions lapses active subscriptions whose billing
// period has ended without a renewal event from Stripe.
func (js *JobScheduler) sweepExpiredSubscriptions(ctx context.Context) {
	moved, err := js.subSvc.SweepExpired(ctx)
	if err != nil {
		log.Printf("Subscription expiry sweep failed: %v", err)
		return
	}
	if moved > 0 {
		log.Printf("Subscription expiry sweep moved %d subscriptions to past_due", moved)
	}
}

// sweepStaleLoads flags in-transit loads with no status update for longer
// than the configured threshold and nudges their assigned drivers.
func (js *JobScheduler) sweepStaleLoads(ctx context.Context) {
	cutoff := time.Now().Add(-js.sweeps.StaleLoadThreshold.Duration)
	stale, err := js.loadRepo.ListStaleInTransit(ctx, cutoff, 100)
	if err != nil {
		log.Printf("Stale load sweep failed: %v", err)
		return
	}

	for _, load := range stale {
		if load.AssignedDriverID == nil {
			continue
		}
		if err := js.distributor.EnqueueLoadEvent(ctx, load.TenantID, load.ID, "load_status",
			[]uuid.UUID{*load.AssignedDriverID}); err != nil {
			log.Printf("Failed to enqueue stale reminder for load %s: %v", load.ID, err)
		}
	}

	if len(stale) > 0 {
		log.Printf("Stale load sweep flagged %d loads", len(stale))
	}
}
