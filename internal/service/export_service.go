package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/export"
)

// ExportFormat names the supported download formats.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatPDF  ExportFormat = "pdf"
)

// ExportFile bundles the rendered bytes with download metadata.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type exportStudentRepository interface {
	ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
}

type exportCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
}

// ExportService renders student and course listings into downloadable
// files.
type ExportService struct {
	students exportStudentRepository
	courses  exportCourseRepository
	xlsx     *export.XLSXExporter
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students exportStudentRepository, courses exportCourseRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		courses:  courses,
		xlsx:     export.NewXLSXExporter(),
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// Students exports the filtered roster.
func (s *ExportService) Students(ctx context.Context, filter models.StudentFilter, format ExportFormat) (*ExportFile, error) {
	students, err := s.students.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for export")
	}

	data := export.Dataset{
		Headers: []string{"Code", "Full Name", "Gender", "Phone", "Address", "Stage", "Study Type", "Group"},
	}
	for _, student := range students {
		data.Rows = append(data.Rows, map[string]string{
			"Code":       student.Code,
			"Full Name":  student.FullName,
			"Gender":     deref(student.Gender),
			"Phone":      deref(student.PhoneNumber),
			"Address":    deref(student.Address),
			"Stage":      student.StageName,
			"Study Type": student.StudyTypeName,
			"Group":      deref(student.GroupSymbol),
		})
	}
	return s.render(data, "students", "Students", format)
}

// Courses exports the filtered course catalogue.
func (s *ExportService) Courses(ctx context.Context, filter models.CourseFilter, format ExportFormat) (*ExportFile, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses for export")
	}

	data := export.Dataset{
		Headers: []string{"Code", "Name", "Stage", "Type", "Semester"},
	}
	for _, course := range courses {
		semester := "yearly"
		if course.Semester != nil {
			semester = strconv.Itoa(*course.Semester)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Code":     course.Code,
			"Name":     course.Name,
			"Stage":    course.StageName,
			"Type":     string(course.Type),
			"Semester": semester,
		})
	}
	return s.render(data, "courses", "Courses", format)
}

func (s *ExportService) render(data export.Dataset, basename, title string, format ExportFormat) (*ExportFile, error) {
	switch format {
	case FormatXLSX, "":
		raw, err := s.xlsx.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx export")
		}
		return &ExportFile{
			Filename:    basename + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        raw,
		}, nil
	case FormatCSV:
		raw, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{Filename: basename + ".csv", ContentType: "text/csv", Data: raw}, nil
	case FormatPDF:
		raw, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{Filename: basename + ".pdf", ContentType: "application/pdf", Data: raw}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
