package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

type mockImportStudentRepo struct {
	created    []*models.Student
	takenCodes map[string]bool
	createErr  error
}

func (m *mockImportStudentRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	return m.takenCodes[code], nil
}

func (m *mockImportStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.takenCodes[student.Code] {
		return errors.New("duplicate code")
	}
	if m.takenCodes == nil {
		m.takenCodes = map[string]bool{}
	}
	m.takenCodes[student.Code] = true
	m.created = append(m.created, student)
	return nil
}

type mockImportGroupRepo struct {
	bySymbol map[string]*models.Group
	byID     map[string]*models.Group
}

func (m *mockImportGroupRepo) FindBySymbol(ctx context.Context, symbol string) (*models.Group, error) {
	group, ok := m.bySymbol[symbol]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return group, nil
}

func (m *mockImportGroupRepo) FindByID(ctx context.Context, id string) (*models.Group, error) {
	group, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return group, nil
}

func xlsxUpload(t *testing.T, filename string, rows [][]string) *multipart.FileHeader {
	t.Helper()

	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, workbook.SetCellValue(sheet, name, cell))
		}
	}
	content, err := workbook.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() }) //nolint:errcheck
	return form.File["file"][0]
}

func newTestImportService(students *mockImportStudentRepo, groups *mockImportGroupRepo) *ImportService {
	activity, _ := newTestActivityService()
	return NewImportService(students, groups, activity, zap.NewNop())
}

func TestImportStudents(t *testing.T) {
	students := &mockImportStudentRepo{takenCodes: map[string]bool{}}
	groups := &mockImportGroupRepo{
		bySymbol: map[string]*models.Group{"A": {ID: "g-a", Symbol: "A"}},
		byID:     map[string]*models.Group{},
	}
	svc := newTestImportService(students, groups)

	file := xlsxUpload(t, "roster.xlsx", [][]string{
		{"Full Name", "Gender", "Code", "Group", "Phone"},
		{"Ali Hassan", "ذكر", "CS-100", "A", "07701111111"},
		{"Sara Ahmed", "f", "", "", ""},
		{"", "male", "CS-102", "", ""},
		{"Omar Khalid", "unknown", "CS-103", "B", ""},
	})

	summary, err := svc.ImportStudents(context.Background(), Actor{Role: models.RoleAdmin}, file, "stage-1", "type-1", "")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, students.created, 3)

	ali := students.created[0]
	assert.Equal(t, "Ali Hassan", ali.FullName)
	assert.Equal(t, models.GenderMale, *ali.Gender)
	assert.Equal(t, "CS-100", ali.Code)
	assert.Equal(t, "g-a", *ali.GroupID)
	assert.Equal(t, "07701111111", *ali.PhoneNumber)
	assert.Equal(t, "stage-1", ali.StageID)
	assert.Equal(t, "type-1", ali.StudyTypeID)

	sara := students.created[1]
	assert.Equal(t, models.GenderFemale, *sara.Gender)
	assert.True(t, strings.HasPrefix(sara.Code, "ST-"))
	assert.Len(t, sara.Code, 11)
	assert.Nil(t, sara.GroupID)

	omar := students.created[2]
	assert.Nil(t, omar.Gender)
	// Unknown row symbol resolves to no group, not an error.
	assert.Nil(t, omar.GroupID)
}

func TestImportStudentsRequestGroupWins(t *testing.T) {
	students := &mockImportStudentRepo{takenCodes: map[string]bool{}}
	groups := &mockImportGroupRepo{
		bySymbol: map[string]*models.Group{"A": {ID: "g-a", Symbol: "A"}},
		byID:     map[string]*models.Group{"g-req": {ID: "g-req", Symbol: "R"}},
	}
	svc := newTestImportService(students, groups)

	file := xlsxUpload(t, "roster.xlsx", [][]string{
		{"name", "group"},
		{"Ali Hassan", "A"},
	})

	summary, err := svc.ImportStudents(context.Background(), Actor{}, file, "stage-1", "type-1", "g-req")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, "g-req", *students.created[0].GroupID)
}

func TestImportStudentsDuplicateCodeFailsRow(t *testing.T) {
	students := &mockImportStudentRepo{takenCodes: map[string]bool{"CS-100": true}}
	groups := &mockImportGroupRepo{bySymbol: map[string]*models.Group{}, byID: map[string]*models.Group{}}
	svc := newTestImportService(students, groups)

	// A supplied code is kept verbatim; the conflicting insert fails the row
	// while the rest of the batch continues.
	file := xlsxUpload(t, "roster.xlsx", [][]string{
		{"student_name", "code"},
		{"Ali Hassan", "CS-100"},
		{"Sara Ahmed", "CS-101"},
	})

	summary, err := svc.ImportStudents(context.Background(), Actor{}, file, "stage-1", "type-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "row 2")
	require.Len(t, students.created, 1)
	assert.Equal(t, "CS-101", students.created[0].Code)
}

func TestImportStudentsNameFromAnyCandidateColumn(t *testing.T) {
	students := &mockImportStudentRepo{takenCodes: map[string]bool{}}
	groups := &mockImportGroupRepo{bySymbol: map[string]*models.Group{}, byID: map[string]*models.Group{}}
	svc := newTestImportService(students, groups)

	// full_name is empty but the later name column carries the value; the
	// candidate list is walked per row, not fixed to one header.
	file := xlsxUpload(t, "roster.xlsx", [][]string{
		{"full_name", "name", "code"},
		{"", "Ali Hassan", "CS-100"},
	})

	summary, err := svc.ImportStudents(context.Background(), Actor{}, file, "stage-1", "type-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, students.created, 1)
	assert.Equal(t, "Ali Hassan", students.created[0].FullName)
}

func TestImportStudentsRejectsNonXLSX(t *testing.T) {
	svc := newTestImportService(&mockImportStudentRepo{}, &mockImportGroupRepo{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name\nAli"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() }) //nolint:errcheck

	_, err = svc.ImportStudents(context.Background(), Actor{}, form.File["file"][0], "stage-1", "type-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportStudentsRequiresTarget(t *testing.T) {
	svc := newTestImportService(&mockImportStudentRepo{}, &mockImportGroupRepo{})
	file := xlsxUpload(t, "roster.xlsx", [][]string{{"name"}, {"Ali"}})

	_, err := svc.ImportStudents(context.Background(), Actor{}, file, "", "type-1", "")
	require.Error(t, err)
	_, err = svc.ImportStudents(context.Background(), Actor{}, file, "stage-1", "", "")
	require.Error(t, err)
}

func TestImportStudentsNoNameColumnSkipsRows(t *testing.T) {
	students := &mockImportStudentRepo{}
	svc := newTestImportService(students, &mockImportGroupRepo{})
	file := xlsxUpload(t, "roster.xlsx", [][]string{
		{"gender", "phone"},
		{"male", "07701111111"},
		{"female", ""},
	})

	summary, err := svc.ImportStudents(context.Background(), Actor{}, file, "stage-1", "type-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, students.created)
}

func TestSlugHeader(t *testing.T) {
	cases := map[string]string{
		"Full Name":    "full_name",
		"full-name":    "full_name",
		"FULL_NAME":    "full_name",
		"  Phone  ":    "phone",
		"student.name": "student_name",
		"a  -  b":      "a_b",
		"":             "",
		"   ":          "",
	}
	for input, want := range cases {
		assert.Equal(t, want, slugHeader(input), "slug of %q", input)
	}
}

func TestNormalizeGender(t *testing.T) {
	male := []string{"male", "M", "ذكر", "ولد"}
	for _, v := range male {
		got := normalizeGender(v)
		require.NotNil(t, got, "input %q", v)
		assert.Equal(t, models.GenderMale, *got)
	}

	female := []string{"female", "F", "أنثى", "انثى", "بنت"}
	for _, v := range female {
		got := normalizeGender(v)
		require.NotNil(t, got, "input %q", v)
		assert.Equal(t, models.GenderFemale, *got)
	}

	for _, v := range []string{"", "other", "xyz"} {
		assert.Nil(t, normalizeGender(v), "input %q", v)
	}
}

func TestMapHeadersFirstOccurrenceWins(t *testing.T) {
	columns := mapHeaders([]string{"Name", "Code", "name", ""})
	assert.Equal(t, 0, columns["name"])
	assert.Equal(t, 1, columns["code"])
	assert.Len(t, columns, 2)
}
