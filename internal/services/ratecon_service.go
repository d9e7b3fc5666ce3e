package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"freightdesk/internal/models"
	"freightdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// RateConServiceInterface generates rate confirmation PDFs for assigned
// loads and files them as load documents.
type RateConServiceInterface interface {
	GenerateForLoad(ctx context.Context, tenantID, loadID uuid.UUID) (*models.LoadDocument, error)
}

type rateConService struct {
	loadRepo   repositories.LoadRepository
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
	storage    StorageService
	bucket     string
}

// NewRateConService creates a new rate confirmation service instance
func NewRateConService(loadRepo repositories.LoadRepository, tenantRepo repositories.TenantRepository, userRepo repositories.UserRepository, storage StorageService, bucket string) RateConServiceInterface {
	return &rateConService{
		loadRepo:   loadRepo,
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		storage:    storage,
		bucket:     bucket,
	}
}

// GenerateForLoad renders the rate confirmation for an assigned load,
// uploads it to object storage and records the document reference.
func (s *rateConService) GenerateForLoad(ctx context.Context, tenantID, loadID uuid.UUID) (*models.LoadDocument, error) {
	load, err := s.loadRepo.GetByID(ctx, tenantID, loadID)
	if err != nil {
		return nil, err
	}
	if load.AssignedDriverID == nil {
		return nil, fmt.Errorf("ratecon: load %s has no assigned driver", loadID)
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	driver, err := s.userRepo.GetByID(ctx, tenantID, *load.AssignedDriverID)
	if err != nil {
		return nil, err
	}
	stops, err := s.loadRepo.ListStops(ctx, tenantID, loadID)
	if err != nil {
		return nil, err
	}

	pdfBytes, err := s.renderPDF(tenant, load, driver, stops)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("%s/loads/%s/rate-confirmation.pdf", tenantID, loadID)
	if err := s.storage.Upload(ctx, s.bucket, objectKey, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return nil, fmt.Errorf("ratecon: upload: %w", err)
	}

	doc := &models.LoadDocument{
		ID:          uuid.New(),
		TenantID:    tenantID,
		LoadID:      loadID,
		Name:        fmt.Sprintf("Rate Confirmation %s.pdf", load.Reference),
		ContentType: "application/pdf",
		ObjectKey:   objectKey,
		UploadedBy:  *load.AssignedDriverID,
		CreatedAt:   time.Now(),
	}
	if err := s.loadRepo.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *rateConService) renderPDF(tenant *models.Tenant, load *models.Load, driver *models.User, stops []*models.Stop) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "RATE CONFIRMATION")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Load Reference: %s", load.Reference))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Carrier: %s", tenant.Name))
	pdf.Ln(8)
	if tenant.DOTNumber != "" {
		pdf.Cell(0, 8, fmt.Sprintf("DOT Number: %s", tenant.DOTNumber))
		pdf.Ln(8)
	}
	if tenant.MCNumber != "" {
		pdf.Cell(0, 8, fmt.Sprintf("MC Number: %s", tenant.MCNumber))
		pdf.Ln(8)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Driver: %s %s", driver.FirstName, driver.LastName))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", time.Now().Format("02-Jan-2006")))
	pdf.Ln(13)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	headers := []string{"Stop", "Type", "Address", "Window"}
	colWidths := []float64{15, 25, 90, 40}
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(255, 255, 255)
	for _, stop := range stops {
		window := ""
		if stop.WindowStart != nil {
			window = stop.WindowStart.Format("02-Jan 15:04")
		}
		pdf.CellFormat(colWidths[0], 8, fmt.Sprintf("%d", stop.Seq), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, stop.Kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, stop.Address, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, window, "1", 0, "C", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(7)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Agreed Rate: %.2f %s", load.RateAmount, load.Currency))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, "This rate confirmation covers all services for the load described above. Detention, layover and accessorial charges require written approval from dispatch.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ratecon: render: %w", err)
	}
	return buf.Bytes(), nil
}
