package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"freightdesk/internal/repositories"
	"freightdesk/internal/services"
)

// Task type definitions
const (
	TypeRateConfirmation = "ratecon:generate"
	TypeLoadEvent        = "load:event"
)

// RateConfirmationPayload defines the payload for rate confirmation tasks
type RateConfirmationPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	LoadID   uuid.UUID `json:"load_id"`
}

// LoadEventPayload defines the payload for load event notification tasks
type LoadEventPayload struct {
	TenantID     uuid.UUID   `json:"tenant_id"`
	LoadID       uuid.UUID   `json:"load_id"`
	Event        string      `json:"event"`
	RecipientIDs []uuid.UUID `json:"recipient_ids"`
}

// NewRateConfirmationTask creates a new rate confirmation generation task
func NewRateConfirmationTask(tenantID, loadID uuid.UUID) (*asynq.Task, error) {
	payload := RateConfirmationPayload{
		TenantID: tenantID,
		LoadID:   loadID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRateConfirmation, data, asynq.Queue("default")), nil
}

// NewLoadEventTask creates a new load event notification task
func NewLoadEventTask(tenantID, loadID uuid.UUID, event string, recipientIDs []uuid.UUID) (*asynq.Task, error) {
	payload := LoadEventPayload{
		TenantID:     tenantID,
		LoadID:       loadID,
		Event:        event,
		RecipientIDs: recipientIDs,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLoadEvent, data, asynq.Queue("critical")), nil
}

// Distributor enqueues background tasks over asynq. It satisfies
// services.TaskDistributor.
type Distributor struct {
	client *asynq.Client
}

func NewDistributor(client *asynq.Client) *Distributor {
	return &Distributor{client: client}
}

func (d *Distributor) EnqueueRateConfirmation(ctx context.Context, tenantID, loadID uuid.UUID) error {
	task, err := NewRateConfirmationTask(tenantID, loadID)
	if err != nil {
		return fmt.Errorf("failed to build rate confirmation task: %w", err)
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue rate confirmation task: %w", err)
	}
	log.Printf("Enqueued rate confirmation task %s for load %s", info.ID, loadID)
	return nil
}

func (d *Distributor) EnqueueLoadEvent(ctx context.Context, tenantID, loadID uuid.UUID, event string, recipientIDs []uuid.UUID) error {
	task, err := NewLoadEventTask(tenantID, loadID, event, recipientIDs)
	if err != nil {
		return fmt.Errorf("failed to build load event task: %w", err)
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue load event task: %w", err)
	}
	log.Printf("Enqueued load event task %s (%s) for load %s", info.ID, event, loadID)
	return nil
}

// Processor holds the dependencies asynq task handlers need
type Processor struct {
	rateConService      services.RateConServiceInterface
	notificationService services.NotificationServiceInterface
	loadRepo            repositories.LoadRepository
}

func NewProcessor(rateConService services.RateConServiceInterface, notificationService services.NotificationServiceInterface, loadRepo repositories.LoadRepository) *Processor {
	return &Processor{
		rateConService:      rateConService,
		notificationService: notificationService,
		loadRepo:            loadRepo,
	}
}

// RateConfirmationHandler handles rate confirmation generation tasks
func (p *Processor) RateConfirmationHandler(ctx context.Context, t *asynq.Task) error {
	var payload RateConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal rate confirmation payload: %w", err)
	}

	log.Printf("Generating rate confirmation for load %s (tenant %s)", payload.LoadID, payload.TenantID)

	doc, err := p.rateConService.GenerateForLoad(ctx, payload.TenantID, payload.LoadID)
	if err != nil {
		log.Printf("Rate confirmation generation failed for load %s: %v", payload.LoadID, err)
		return err
	}

	log.Printf("Rate confirmation generated for load %s: document %s", payload.LoadID, doc.ID)
	return nil
}

// LoadEventHandler handles load event notification tasks
func (p *Processor) LoadEventHandler(ctx context.Context, t *asynq.Task) error {
	var payload LoadEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal load event payload: %w", err)
	}

	// The dvir_defect event carries a report ID rather than a load ID, so
	// only load-scoped events resolve the reference.
	reference, status := payload.LoadID.String(), ""
	if payload.Event == "load_assigned" || payload.Event == "load_status" {
		load, err := p.loadRepo.GetByID(ctx, payload.TenantID, payload.LoadID)
		if err != nil {
			return fmt.Errorf("failed to fetch load %s for event %s: %w", payload.LoadID, payload.Event, err)
		}
		reference, status = load.Reference, load.Status
	}

	title, body := renderLoadEvent(payload.Event, reference, status)

	var failed int
	for _, recipientID := range payload.RecipientIDs {
		if err := p.notificationService.Notify(ctx, payload.TenantID, recipientID, payload.Event, title, body); err != nil {
			log.Printf("Failed to notify user %s about load %s: %v", recipientID, payload.LoadID, err)
			failed++
		}
	}
	if failed == len(payload.RecipientIDs) && failed > 0 {
		return fmt.Errorf("all %d notifications failed for load %s", failed, payload.LoadID)
	}

	log.Printf("Delivered %d/%d notifications for load %s event %s", len(payload.RecipientIDs)-failed, len(payload.RecipientIDs), payload.LoadID, payload.Event)
	return nil
}

func renderLoadEvent(event, reference, status string) (title, body string) {
	switch event {
	case "load_assigned":
		return "Load assigned", fmt.Sprintf("You have been assigned load %s", reference)
	case "load_status":
		return "Load status update", fmt.Sprintf("Load %s is now %s", reference, status)
	case "dvir_defect":
		return "DVIR defect reported", fmt.Sprintf("Inspection report %s flagged a vehicle as unsafe to operate", reference)
	default:
		return "Load update", fmt.Sprintf("Load %s was updated", reference)
	}
}
