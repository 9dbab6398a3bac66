package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
)

type pagePermissionRow struct {
	PageID    string    `db:"page_id"`
	Label     string    `db:"label"`
	Path      string    `db:"path"`
	Roles     string    `db:"roles"`
	Position  int       `db:"position"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r pagePermissionRow) toEntity() (permission.PagePermission, error) {
	var roles []permission.Role
	if err := json.Unmarshal([]byte(r.Roles), &roles); err != nil {
		return permission.PagePermission{}, fmt.Errorf("decode roles of %s: %w", r.PageID, err)
	}
	if roles == nil {
		roles = []permission.Role{}
	}
	return permission.PagePermission{
		PageID:    r.PageID,
		Label:     r.Label,
		Path:      r.Path,
		Roles:     roles,
		Position:  r.Position,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func encodeRoles(roles []permission.Role) (string, error) {
	if roles == nil {
		roles = []permission.Role{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// PermissionRepository stores page permissions in the page_permissions table. Queries
// are written with ? placeholders and rebound for the driver in use.
type PermissionRepository struct {
	db *sqlx.DB
}

func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const selectColumns = `page_id, label, path, roles, position, updated_at`

func (r *PermissionRepository) List(ctx context.Context) ([]permission.PagePermission, error) {
	var rows []pagePermissionRow
	query := `SELECT ` + selectColumns + ` FROM page_permissions ORDER BY position, page_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	perms := make([]permission.PagePermission, 0, len(rows))
	for _, row := range rows {
		p, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func (r *PermissionRepository) Get(ctx context.Context, pageID string) (*permission.PagePermission, error) {
	var row pagePermissionRow
	query := r.db.Rebind(`SELECT ` + selectColumns + ` FROM page_permissions WHERE page_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrPageNotFound.WithMessage(fmt.Sprintf("page %q has no permission record", pageID))
		}
		return nil, err
	}
	p, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM page_permissions`); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PermissionRepository) Seed(ctx context.Context, perms []permission.PagePermission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`INSERT INTO page_permissions (page_id, label, path, roles, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (page_id) DO NOTHING`)
	now := time.Now().UTC()
	for _, p := range perms {
		roles, err := encodeRoles(p.Roles)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, p.PageID, p.Label, p.Path, roles, p.Position, now); err != nil {
			return fmt.Errorf("seed page %s: %w", p.PageID, err)
		}
	}
	return tx.Commit()
}

func (r *PermissionRepository) UpdateRoles(ctx context.Context, pageID string, roles []permission.Role) error {
	encoded, err := encodeRoles(roles)
	if err != nil {
		return err
	}
	query := r.db.Rebind(`UPDATE page_permissions SET roles = ?, updated_at = ? WHERE page_id = ?`)
	res, err := r.db.ExecContext(ctx, query, encoded, time.Now().UTC(), pageID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal.ErrPageNotFound.WithMessage(fmt.Sprintf("page %q has no permission record", pageID))
	}
	return nil
}

func (r *PermissionRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM page_permissions`)
	return err
}
