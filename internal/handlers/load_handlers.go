package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LoadHandlers handles HTTP requests for loads
type LoadHandlers struct {
	loadService services.LoadServiceInterface
	rateCon     services.RateConServiceInterface
	storage     services.StorageService
	bucket      string
}

// NewLoadHandlers creates a new load handlers instance
func NewLoadHandlers(loadService services.LoadServiceInterface, rateCon services.RateConServiceInterface, storage services.StorageService, bucket string) *LoadHandlers {
	return &LoadHandlers{
		loadService: loadService,
		rateCon:     rateCon,
		storage:     storage,
		bucket:      bucket,
	}
}

// sendLoadError maps load domain errors to HTTP responses. Tenant mismatch
// is reported as not found so cross-tenant probes cannot confirm that a
// load id exists.
func sendLoadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrLoadNotFound),
		errors.Is(err, repositories.ErrTenantMismatch):
		return common.SendNotFoundError(c, "Load")
	case errors.Is(err, repositories.ErrDriverNotFound):
		return common.SendNotFoundError(c, "Driver")
	case errors.Is(err, repositories.ErrStopNotFound):
		return common.SendNotFoundError(c, "Stop")
	case errors.Is(err, repositories.ErrLoadAlreadyAssigned):
		return common.SendConflictError(c, "Load is already assigned")
	case errors.Is(err, repositories.ErrInvalidTransition):
		return common.SendConflictError(c, "Status transition not allowed")
	case errors.Is(err, repositories.ErrNotADriver):
		return common.SendClientError(c, "Assignee is not a driver")
	case errors.Is(err, repositories.ErrNotAssignedDriver):
		return common.SendForbiddenError(c, "Drivers may only update their own loads")
	default:
		return common.SendServerError(c, "Operation failed")
	}
}

// CreateLoadRequest represents the load creation payload
type CreateLoadRequest struct {
	Reference  string             `json:"reference" validate:"required"`
	RateAmount float64            `json:"rate_amount"`
	Currency   string             `json:"currency"`
	Notes      *string            `json:"notes"`
	Stops      []CreateStopInput  `json:"stops" validate:"required"`
}

type CreateStopInput struct {
	Kind        string     `json:"kind" validate:"required"`
	Address     string     `json:"address" validate:"required"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
}

// CreateLoad handles POST /v1/loads
func (h *LoadHandlers) CreateLoad(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CreateLoadRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	load := &models.Load{
		Reference:  req.Reference,
		RateAmount: req.RateAmount,
		Currency:   req.Currency,
		Notes:      req.Notes,
	}
	for _, stop := range req.Stops {
		load.Stops = append(load.Stops, &models.Stop{
			Kind:        stop.Kind,
			Address:     stop.Address,
			WindowStart: stop.WindowStart,
			WindowEnd:   stop.WindowEnd,
		})
	}

	if err := h.loadService.CreateLoad(ctx, tenantID, load); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, load)
}

// GetLoad handles GET /v1/loads/:id
func (h *LoadHandlers) GetLoad(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	load, err := h.loadService.GetLoadByID(ctx, tenantID, loadID)
	if err != nil {
		return sendLoadError(c, err)
	}

	return c.JSON(http.StatusOK, load)
}

// ListLoads handles GET /v1/loads
func (h *LoadHandlers) ListLoads(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter := &models.LoadSearchFilter{Limit: 50}
	if status := c.QueryParam("status"); status != "" {
		if !models.ValidLoadStatus(status) {
			return common.SendValidationError(c, "status", "unknown load status")
		}
		filter.Status = &status
	}
	if driverParam := c.QueryParam("driver_id"); driverParam != "" {
		driverID, err := common.ValidateUUID(driverParam, "driver_id")
		if err != nil {
			return common.SendValidationError(c, "driver_id", err.Error())
		}
		filter.DriverID = &driverID
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 200 {
			filter.Limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	// Drivers only ever see their own loads.
	if role, _ := common.GetRoleFromContext(ctx); role == models.RoleDriver {
		userID, _ := common.GetUserIDFromContext(ctx)
		filter.DriverID = &userID
	}

	loads, err := h.loadService.ListLoads(ctx, tenantID, filter)
	if err != nil {
		return common.SendServerError(c, "Failed to list loads")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"loads":  loads,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// AssignDriverRequest represents the driver assignment payload
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required"`
}

// AssignDriver handles POST /v1/loads/:id/assign
func (h *LoadHandlers) AssignDriver(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	actorID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req AssignDriverRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	driverID, err := common.ValidateUUID(req.DriverID, "driver_id")
	if err != nil {
		return common.SendValidationError(c, "driver_id", err.Error())
	}

	load, err := h.loadService.AssignDriver(ctx, tenantID, loadID, driverID, actorID)
	if err != nil {
		return sendLoadError(c, err)
	}

	return c.JSON(http.StatusOK, load)
}

// UpdateStatusRequest represents the status update payload
type UpdateStatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	StopID     *string `json:"stop_id"`
	StopStatus *string `json:"stop_status"`
	Notes      *string `json:"notes"`
	Location   *string `json:"location"`
}

// UpdateStatus handles POST /v1/loads/:id/status
func (h *LoadHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	actorID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	role, _ := common.GetRoleFromContext(ctx)
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Status == "" {
		return common.SendValidationError(c, "status", "status is required")
	}
	if !models.ValidLoadStatus(req.Status) {
		return common.SendValidationError(c, "status", "unknown load status")
	}

	params := repositories.UpdateStatusParams{
		TenantID:   tenantID,
		LoadID:     loadID,
		Status:     req.Status,
		ActorID:    actorID,
		ActorRole:  role,
		StopStatus: req.StopStatus,
		Notes:      req.Notes,
		Location:   req.Location,
	}
	if req.StopID != nil {
		stopID, err := common.ValidateUUID(*req.StopID, "stop_id")
		if err != nil {
			return common.SendValidationError(c, "stop_id", err.Error())
		}
		params.StopID = &stopID
	}
	if req.StopStatus != nil && !models.ValidStopStatus(*req.StopStatus) {
		return common.SendValidationError(c, "stop_status", "unknown stop status")
	}

	load, err := h.loadService.UpdateStatus(ctx, params)
	if err != nil {
		return sendLoadError(c, err)
	}

	return c.JSON(http.StatusOK, load)
}

// GetStatusHistory handles GET /v1/loads/:id/history
func (h *LoadHandlers) GetStatusHistory(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	// Confirm the load exists within the tenant before listing history.
	if _, err := h.loadService.GetLoadByID(ctx, tenantID, loadID); err != nil {
		return sendLoadError(c, err)
	}

	history, err := h.loadService.GetStatusHistory(ctx, tenantID, loadID)
	if err != nil {
		return common.SendServerError(c, "Failed to list status history")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"history": history})
}

// UploadDocument handles POST /v1/loads/:id/documents (multipart form)
func (h *LoadHandlers) UploadDocument(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if _, err := h.loadService.GetLoadByID(ctx, tenantID, loadID); err != nil {
		return sendLoadError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	objectKey := fmt.Sprintf("%s/loads/%s/%s-%s", tenantID, loadID, uuid.NewString()[:8], fileHeader.Filename)

	if err := h.storage.Upload(ctx, h.bucket, objectKey, contentType, file, fileHeader.Size); err != nil {
		return common.SendServerError(c, "Failed to store document")
	}

	doc := &models.LoadDocument{
		TenantID:    tenantID,
		LoadID:      loadID,
		Name:        fileHeader.Filename,
		ContentType: contentType,
		ObjectKey:   objectKey,
		UploadedBy:  userID,
	}
	if err := h.loadService.AddDocument(ctx, doc); err != nil {
		return common.SendServerError(c, "Failed to record document")
	}

	return c.JSON(http.StatusCreated, doc)
}

// ListDocuments handles GET /v1/loads/:id/documents
func (h *LoadHandlers) ListDocuments(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if _, err := h.loadService.GetLoadByID(ctx, tenantID, loadID); err != nil {
		return sendLoadError(c, err)
	}

	docs, err := h.loadService.ListDocuments(ctx, tenantID, loadID)
	if err != nil {
		return common.SendServerError(c, "Failed to list documents")
	}

	type documentWithURL struct {
		*models.LoadDocument
		URL string `json:"url,omitempty"`
	}
	out := make([]documentWithURL, 0, len(docs))
	for _, doc := range docs {
		url, err := h.storage.GetPresignedURL(ctx, h.bucket, doc.ObjectKey, 15*time.Minute)
		if err != nil {
			url = ""
		}
		out = append(out, documentWithURL{LoadDocument: doc, URL: url})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"documents": out})
}

// GetRateConfirmation renders the rate confirmation PDF for an assigned
// load on demand and returns the stored document with a download URL.
// GET /v1/loads/:id/rate-confirmation
func (h *LoadHandlers) GetRateConfirmation(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	loadID, err := common.ValidateUUID(c.Param("id"), "load ID")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	load, err := h.loadService.GetLoadByID(ctx, tenantID, loadID)
	if err != nil {
		return sendLoadError(c, err)
	}
	if load.AssignedDriverID == nil {
		return common.SendConflictError(c, "Load has no assigned driver")
	}

	doc, err := h.rateCon.GenerateForLoad(ctx, tenantID, loadID)
	if err != nil {
		return sendLoadError(c, err)
	}

	url, err := h.storage.GetPresignedURL(ctx, h.bucket, doc.ObjectKey, 15*time.Minute)
	if err != nil {
		url = ""
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"document": doc, "url": url})
}
