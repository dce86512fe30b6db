package postgres

import (
	"context"

	"github.com/marqueehq/marquee/internal/domain"
)

// InsertToken persists a token's hash, owner, expiry and scope. The
// plaintext never reaches this layer.
func (r *Repository) InsertToken(ctx context.Context, token *domain.Token) error {
	const query = `INSERT INTO tokens (hash, user_id, expiry, scope)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, token.Hash, token.UserID, token.Expiry, token.Scope)
	return err
}

// DeleteAllTokensForUser consumes every token a user holds under one
// scope, typically after an activation or password reset succeeds.
func (r *Repository) DeleteAllTokensForUser(ctx context.Context, scope string, userID int64) error {
	const query = `DELETE FROM tokens WHERE scope = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, scope, userID)
	return err
}
