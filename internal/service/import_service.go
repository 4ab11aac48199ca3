package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alrafidain/college-records-api/internal/models"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
)

// nameHeaderCandidates are the header slugs accepted as the student name
// column, checked in order for every row.
var nameHeaderCandidates = []string{
	"full_name", "name", "student_name", "asm_altalb", "asm_talb",
	"alasm", "asm", "fullname", "first_name", "student",
}

var maleAliases = map[string]struct{}{
	"male": {}, "m": {}, "ذكر": {}, "ولد": {},
}

var femaleAliases = map[string]struct{}{
	"female": {}, "f": {}, "anther": {}, "أنثى": {}, "انثى": {}, "بنت": {},
}

type importStudentRepository interface {
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type importGroupRepository interface {
	FindBySymbol(ctx context.Context, symbol string) (*models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// ImportService ingests student rosters from xlsx spreadsheets. Rows are
// normalized and inserted best effort: a bad row is counted and reported,
// never fatal to the batch.
type ImportService struct {
	students importStudentRepository
	groups   importGroupRepository
	activity *ActivityService
	logger   *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(students importStudentRepository, groups importGroupRepository, activity *ActivityService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, groups: groups, activity: activity, logger: logger}
}

// ImportStudents parses the uploaded spreadsheet and registers one student
// per row. The caller supplies the destination stage and study type; the
// group comes from the request when given, else from a per-row group column,
// else stays null.
func (s *ImportService) ImportStudents(ctx context.Context, actor Actor, file *multipart.FileHeader, stageID, studyTypeID, groupID string) (*models.ImportSummary, error) {
	if stageID == "" || studyTypeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stage_id and study_type_id are required")
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".xlsx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only .xlsx files are supported")
	}
	if groupID != "" {
		if _, err := s.groups.FindByID(ctx, groupID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "group does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify group")
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to open uploaded file")
	}
	defer src.Close() //nolint:errcheck

	workbook, err := excelize.OpenReader(src)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not a readable xlsx workbook")
	}
	defer workbook.Close() //nolint:errcheck

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read worksheet")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "worksheet has no data rows")
	}

	columns := mapHeaders(rows[0])

	summary := &models.ImportSummary{}
	for i, row := range rows[1:] {
		line := i + 2
		fullName := cellValue(row, columns, nameHeaderCandidates...)
		if fullName == "" {
			s.logger.Info("skipping row without a student name", zap.Int("row", line))
			summary.Skipped++
			continue
		}

		student := models.Student{
			FullName:    fullName,
			Gender:      normalizeGender(cellValue(row, columns, "gender", "aljns", "sex")),
			StageID:     stageID,
			StudyTypeID: studyTypeID,
		}
		if phone := cellValue(row, columns, "phone", "phone_number", "mobile"); phone != "" {
			student.PhoneNumber = &phone
		}
		if address := cellValue(row, columns, "address", "alanwan"); address != "" {
			student.Address = &address
		}

		resolvedGroup, err := s.resolveGroup(ctx, groupID, cellValue(row, columns, "group", "group_symbol", "section"))
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		student.GroupID = resolvedGroup

		code, err := s.resolveCode(ctx, cellValue(row, columns, "code", "student_code", "rqm"))
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		student.Code = code

		if err := s.students.Create(ctx, &student); err != nil {
			s.logger.Warn("failed to import student row", zap.Int("row", line), zap.Error(err))
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: insert failed", line))
			continue
		}
		summary.Imported++
	}

	s.activity.Record(ctx, actor, "student", "", models.ActivityCreated,
		fmt.Sprintf("imported %d students from %s", summary.Imported, file.Filename), nil)
	return summary, nil
}

// resolveGroup applies the group priority: explicit request parameter first,
// then the row's own group symbol, else null.
func (s *ImportService) resolveGroup(ctx context.Context, requestGroupID, rowSymbol string) (*string, error) {
	if requestGroupID != "" {
		id := requestGroupID
		return &id, nil
	}
	if rowSymbol == "" {
		return nil, nil
	}
	group, err := s.groups.FindBySymbol(ctx, rowSymbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("group lookup failed")
	}
	return &group.ID, nil
}

// resolveCode keeps the row's code verbatim when present; the insert fails
// the row on a conflict. Only rows without a code get a generated ST- one.
func (s *ImportService) resolveCode(ctx context.Context, rowCode string) (string, error) {
	if rowCode != "" {
		return rowCode, nil
	}
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateStudentCode()
		if err != nil {
			return "", fmt.Errorf("code generation failed")
		}
		taken, err := s.students.ExistsByCode(ctx, code, "")
		if err != nil {
			return "", fmt.Errorf("code check failed")
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique code")
}

func generateStudentCode() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffix := make([]byte, 8)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = alphabet[n.Int64()]
	}
	return "ST-" + string(suffix), nil
}

// mapHeaders slugs each header cell and maps it to its column index. The
// first occurrence of a slug wins.
func mapHeaders(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, cell := range header {
		slug := slugHeader(cell)
		if slug == "" {
			continue
		}
		if _, exists := columns[slug]; !exists {
			columns[slug] = idx
		}
	}
	return columns
}

// slugHeader lowercases a header and collapses separators to underscores so
// "Full Name", "full-name" and "FULL_NAME" all match.
func slugHeader(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range value {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return strings.Trim(b.String(), "_")
}

// normalizeGender maps assorted spellings onto the two canonical values and
// returns nil for anything unrecognised.
func normalizeGender(value string) *string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return nil
	}
	if _, ok := maleAliases[value]; ok {
		gender := models.GenderMale
		return &gender
	}
	if _, ok := femaleAliases[value]; ok {
		gender := models.GenderFemale
		return &gender
	}
	return nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellValue(row []string, columns map[string]int, slugs ...string) string {
	for _, slug := range slugs {
		if idx, ok := columns[slug]; ok {
			if value := cellAt(row, idx); value != "" {
				return value
			}
		}
	}
	return ""
}
