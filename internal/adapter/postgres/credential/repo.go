// Package credential implements a TokenStore backed by PostgreSQL, for
// headless deployments that share one session between hosts.
package credential

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/civic-client/internal/adapter/postgres"
)

const table = "credentials"

// Repo stores one credential row under a fixed name.
type Repo struct {
	q    postgres.Querier
	name string
}

// New creates a repository keeping its credential under name.
func New(q postgres.Querier, name string) *Repo {
	return &Repo{q: q, name: name}
}

// Get returns the stored credential, or "" when there is none.
func (r *Repo) Get(ctx context.Context) (string, error) {
	query, args, err := postgres.Builder().
		Select("token").
		From(table).
		Where(squirrel.Eq{"name": r.name}).
		ToSql()
	if err != nil {
		return "", postgres.MapError(err, "credential", r.name)
	}

	var token string
	err = r.q.QueryRow(ctx, query, args...).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", postgres.MapError(err, "credential", r.name)
	}
	return token, nil
}

// Set replaces the credential in a single upsert.
func (r *Repo) Set(ctx context.Context, token string) error {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns("name", "token", "updated_at").
		Values(r.name, token, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (name) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return postgres.MapError(err, "credential", r.name)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "credential", r.name)
	}
	return nil
}

// Clear deletes the credential. Deleting a missing row is not an error.
func (r *Repo) Clear(ctx context.Context) error {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"name": r.name}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "credential", r.name)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "credential", r.name)
	}
	return nil
}

// DeleteStale removes every credential, under any name, last written
// before the given time. It returns the number of rows deleted.
func DeleteStale(ctx context.Context, q postgres.Querier, before time.Time) (int64, error) {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Lt{"updated_at": before}).
		ToSql()
	if err != nil {
		return 0, postgres.MapError(err, "credential", "stale")
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, "credential", "stale")
	}
	return tag.RowsAffected(), nil
}
