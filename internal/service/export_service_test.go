package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type stubExportStudentRepo struct {
	students []models.StudentDetail
}

func (s *stubExportStudentRepo) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	return s.students, nil
}

type stubExportCourseRepo struct {
	courses []models.CourseDetail
}

func (s *stubExportCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	return s.courses, nil
}

func newTestExportService() *ExportService {
	gender := models.GenderMale
	students := &stubExportStudentRepo{students: []models.StudentDetail{
		{
			Student:       models.Student{Code: "CS-001", FullName: "Ali Hassan", Gender: &gender},
			StageName:     "First Stage",
			StudyTypeName: "Morning",
		},
	}}
	semester := 2
	courses := &stubExportCourseRepo{courses: []models.CourseDetail{
		{Course: models.Course{Code: "ALG-1", Name: "Algorithms", Type: models.CourseTheory, Semester: &semester}, StageName: "First Stage"},
		{Course: models.Course{Code: "PRJ-1", Name: "Project", Type: models.CourseBoth}, StageName: "First Stage"},
	}}
	return NewExportService(students, courses, zap.NewNop())
}

func TestExportServiceStudentsCSV(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Students(context.Background(), models.StudentFilter{}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "students.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Code", "Full Name", "Gender", "Phone", "Address", "Stage", "Study Type", "Group"}, records[0])
	assert.Equal(t, "Ali Hassan", records[1][1])
	assert.Equal(t, "", records[1][3])
}

func TestExportServiceStudentsXLSX(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Students(context.Background(), models.StudentFilter{}, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "students.xlsx", file.Filename)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer workbook.Close() //nolint:errcheck

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CS-001", rows[1][0])
}

func TestExportServiceCoursesMarksYearly(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Courses(context.Background(), models.CourseFilter{}, FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2", records[1][4])
	assert.Equal(t, "yearly", records[2][4])
}

func TestExportServicePDF(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Students(context.Background(), models.StudentFilter{}, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceDefaultsToXLSX(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Students(context.Background(), models.StudentFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "students.xlsx", file.Filename)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := newTestExportService()

	_, err := svc.Students(context.Background(), models.StudentFilter{}, "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
