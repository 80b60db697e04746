package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/blob"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/summary"
	"github.com/google/uuid"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Service exports daily summaries of a date range to a blob store.
type Service struct {
	reportsStorage  storage.ReportsStorage
	engine          SummaryProvider
	generator       *Generator
	blobStore       blob.Store
	maxRangeDays    int
	presignTTL      int
	publicBaseURL   string
	preferPublicURL bool
	logger          Logger
}

// ServiceOptions carries report export settings.
type ServiceOptions struct {
	MaxRangeDays    int
	PresignTTL      int
	PublicBaseURL   string
	PreferPublicURL bool
}

func NewService(
	reportsStorage storage.ReportsStorage,
	engine SummaryProvider,
	blobStore blob.Store,
	opts ServiceOptions,
	logger Logger,
) *Service {
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 90
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 900
	}
	return &Service{
		reportsStorage:  reportsStorage,
		engine:          engine,
		generator:       NewGenerator(),
		blobStore:       blobStore,
		maxRangeDays:    opts.MaxRangeDays,
		presignTTL:      opts.PresignTTL,
		publicBaseURL:   opts.PublicBaseURL,
		preferPublicURL: opts.PreferPublicURL,
		logger:          logger,
	}
}

// CreateReport renders the range [from, to] and uploads it.
func (s *Service) CreateReport(ctx context.Context, userID string, req CreateReportRequest) (*storage.ReportMeta, error) {
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	fromDate, err := summary.ParseDate(req.From)
	if err != nil {
		return nil, err
	}
	toDate, err := summary.ParseDate(req.To)
	if err != nil {
		return nil, err
	}
	if fromDate.After(toDate) {
		return nil, ErrInvalidDateRange
	}
	if int(toDate.Sub(fromDate).Hours()/24)+1 > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	days := make([]storage.DailySummary, 0)
	for d := fromDate; !d.After(toDate); d = d.AddDate(0, 0, 1) {
		sum, err := s.engine.GetOrCompute(ctx, userID, d.Format(summary.DateLayout))
		if err != nil {
			return nil, fmt.Errorf("summary for report: %w", err)
		}
		days = append(days, *sum)
	}

	data, err := s.generator.Generate(req.Format, req.From, req.To, days)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	objectKey := fmt.Sprintf("reports/%s/%s_%s_%s.%s",
		userID,
		req.From,
		req.To,
		uuid.New().String(),
		req.Format,
	)
	if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentType(req.Format)); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	report := &storage.ReportMeta{
		UserID:    userID,
		Format:    req.Format,
		FromDate:  req.From,
		ToDate:    req.To,
		ObjectKey: &objectKey,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}
	if err := s.reportsStorage.CreateReport(ctx, report); err != nil {
		if delErr := s.blobStore.DeleteObject(ctx, objectKey); delErr != nil {
			s.logf("WARN reports: orphan_object key=%s err=%v", objectKey, delErr)
		}
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	return report, nil
}

func (s *Service) GetReport(ctx context.Context, userID string, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reportsStorage.GetReport(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return meta, nil
}

func (s *Service) ListReports(ctx context.Context, userID string, limit, offset int) ([]storage.ReportMeta, error) {
	list, err := s.reportsStorage.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return list, nil
}

func (s *Service) DeleteReport(ctx context.Context, userID string, id uuid.UUID) error {
	meta, err := s.GetReport(ctx, userID, id)
	if err != nil {
		return err
	}

	if meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// metadata deletion still proceeds
			s.logf("WARN reports: delete_object_failed key=%s err=%v", *meta.ObjectKey, err)
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL returns a public or presigned URL, or the API download
// endpoint when the store cannot presign.
func (s *Service) DownloadURL(ctx context.Context, meta *storage.ReportMeta, baseURL string) (string, error) {
	url, err := s.RedirectURL(ctx, meta)
	if err != nil {
		return "", err
	}
	if url == "" {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), meta.ID.String()), nil
	}
	return url, nil
}

// RedirectURL returns where the file can be fetched directly, or "" when it
// has to be streamed through the API.
func (s *Service) RedirectURL(ctx context.Context, meta *storage.ReportMeta) (string, error) {
	if meta.ObjectKey == nil {
		return "", nil
	}
	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *meta.ObjectKey, nil
	}

	url, err := s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
	if errors.Is(err, blob.ErrNotPresignable) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// ReportData reads the rendered file from the blob store.
func (s *Service) ReportData(ctx context.Context, meta *storage.ReportMeta) ([]byte, string, error) {
	if meta.ObjectKey == nil {
		return nil, "", ErrReportNotFound
	}
	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return nil, "", ErrReportNotFound
		}
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	return data, contentType(meta.Format), nil
}

func (s *Service) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
