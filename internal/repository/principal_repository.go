package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alrafidain/college-records-api/internal/models"
)

// PrincipalRepository resolves admins and lecturers into one Principal shape
// and persists issued tokens.
type PrincipalRepository struct {
	db *sqlx.DB
}

// NewPrincipalRepository constructs a PrincipalRepository.
func NewPrincipalRepository(db *sqlx.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

const principalColumns = `SELECT id, username, full_name, password_hash, image_path, '%s' AS role FROM %s WHERE username = $1 AND deleted_at IS NULL`

// FindByUsername looks a principal up across both principal tables through a
// single union query. roleHint narrows the search when the caller supplied a
// login type; an empty hint searches both tables, admins first.
func (r *PrincipalRepository) FindByUsername(ctx context.Context, username string, roleHint models.Role) (*models.Principal, error) {
	adminBranch := fmt.Sprintf(principalColumns, models.RoleAdmin, "users")
	lecturerBranch := fmt.Sprintf(principalColumns, models.RoleLecturer, "lecturers")

	var query string
	switch roleHint {
	case models.RoleAdmin:
		query = adminBranch
	case models.RoleLecturer:
		query = lecturerBranch
	default:
		// ADMIN sorts before LECTURER, so an admin wins a username clash.
		query = adminBranch + " UNION ALL " + lecturerBranch + " ORDER BY role"
	}
	query += " LIMIT 1"

	var principal models.Principal
	if err := r.db.GetContext(ctx, &principal, query, username); err != nil {
		return nil, err
	}
	return &principal, nil
}

// FindByID loads a principal of a known role by identifier.
func (r *PrincipalRepository) FindByID(ctx context.Context, id string, role models.Role) (*models.Principal, error) {
	table := "users"
	if role == models.RoleLecturer {
		table = "lecturers"
	}
	query := fmt.Sprintf(`SELECT id, username, full_name, password_hash, image_path, '%s' AS role FROM %s WHERE id = $1 AND deleted_at IS NULL`, role, table)
	var principal models.Principal
	if err := r.db.GetContext(ctx, &principal, query, id); err != nil {
		return nil, err
	}
	return &principal, nil
}

// ExistsByUsername checks username uniqueness within one principal table.
func (r *PrincipalRepository) ExistsByUsername(ctx context.Context, username string, role models.Role, excludeID string) (bool, error) {
	table := "users"
	if role == models.RoleLecturer {
		table = "lecturers"
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE username = $1 AND deleted_at IS NULL", table)
	args := []interface{}{username}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// UpdateProfile updates name, username and optionally the image path.
func (r *PrincipalRepository) UpdateProfile(ctx context.Context, principal *models.Principal) error {
	table := "users"
	if principal.Role == models.RoleLecturer {
		table = "lecturers"
	}
	query := fmt.Sprintf(`UPDATE %s SET full_name = $1, username = $2, image_path = $3, updated_at = $4 WHERE id = $5`, table)
	if _, err := r.db.ExecContext(ctx, query, principal.FullName, principal.Username, principal.ImagePath, time.Now().UTC(), principal.ID); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PrincipalRepository) UpdatePassword(ctx context.Context, id string, role models.Role, passwordHash string) error {
	table := "users"
	if role == models.RoleLecturer {
		table = "lecturers"
	}
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1, updated_at = $2 WHERE id = $3`, table)
	if _, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateToken records an issued access token.
func (r *PrincipalRepository) CreateToken(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO tokens (id, principal_id, role, revoked, expires_at, created_at, ip_address)
        VALUES (:id, :principal_id, :role, :revoked, :expires_at, :created_at, :ip_address)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// FindToken loads a token record by identifier.
func (r *PrincipalRepository) FindToken(ctx context.Context, id string) (*models.Token, error) {
	const query = `SELECT id, principal_id, role, revoked, revoked_at, expires_at, created_at, ip_address FROM tokens WHERE id = $1`
	var token models.Token
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeToken marks a single token revoked.
func (r *PrincipalRepository) RevokeToken(ctx context.Context, id string) error {
	const query = `UPDATE tokens SET revoked = true, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokePrincipalTokens revokes every live token of a principal. Called on
// login so only the newest session stays valid.
func (r *PrincipalRepository) RevokePrincipalTokens(ctx context.Context, principalID string, role models.Role) error {
	const query = `UPDATE tokens SET revoked = true, revoked_at = $3 WHERE principal_id = $1 AND role = $2 AND NOT revoked`
	if _, err := r.db.ExecContext(ctx, query, principalID, role, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke principal tokens: %w", err)
	}
	return nil
}
