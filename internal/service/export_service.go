package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

// ExportFormat is a supported register download format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered document ready to send.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type exportAttendanceReader interface {
	Register(ctx context.Context, attendanceID string) (*models.Attendance, []models.AttendanceRegisterRow, error)
}

type exportSubjectReader interface {
	Get(ctx context.Context, id string) (*models.Subject, error)
}

// ExportService renders attendance registers as CSV or PDF documents.
type ExportService struct {
	attendance exportAttendanceReader
	subjects   exportSubjectReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(attendance exportAttendanceReader, subjects exportSubjectReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		subjects:   subjects,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// SessionRegister renders one session's register in the requested format.
func (s *ExportService) SessionRegister(ctx context.Context, attendanceID string, format ExportFormat) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, expected csv or pdf")
	}

	session, rows, err := s.attendance.Register(ctx, attendanceID)
	if err != nil {
		return nil, err
	}

	subjectName := session.SubjectID
	if subject, err := s.subjects.Get(ctx, session.SubjectID); err == nil {
		subjectName = subject.Name
	}

	dataset := export.Dataset{
		Headers: []string{"Roll Number", "Student", "Status"},
		Rows:    make([][]string, 0, len(rows)),
	}
	present := 0
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, []string{row.RollNumber, row.StudentName, string(row.Status)})
		if row.Status == models.AttendancePresent {
			present++
		}
	}

	date := session.Date.Format("2006-01-02")
	filename := fmt.Sprintf("attendance_%s_%s", sanitizeFilename(subjectName), date)

	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: filename + ".csv"}, nil
	default:
		title := fmt.Sprintf("Attendance Register: %s (%s)", subjectName, date)
		summary := fmt.Sprintf("Present %d of %d", present, len(rows))
		content, err := s.pdf.Render(dataset, title, summary)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: filename + ".pdf"}, nil
	}
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return replacer.Replace(name)
}
