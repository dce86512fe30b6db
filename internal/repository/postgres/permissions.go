package postgres

import (
	"context"
)

// GetPermissionsForUser returns every permission code granted to a user.
func (r *Repository) GetPermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT permissions.code
		FROM permissions
		INNER JOIN users_permissions ON users_permissions.permission_id = permissions.id
		WHERE users_permissions.user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// AddPermissionsForUser grants codes to a user. Grants are append-only;
// unknown codes are silently skipped by the join against permissions.
func (r *Repository) AddPermissionsForUser(ctx context.Context, userID int64, codes ...string) error {
	const query = `INSERT INTO users_permissions (user_id, permission_id)
		SELECT $1, permissions.id FROM permissions WHERE permissions.code = ANY($2)`
	_, err := r.pool.Exec(ctx, query, userID, codes)
	return err
}
