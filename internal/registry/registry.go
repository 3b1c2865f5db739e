// Package registry persists versioned model documents in PostgreSQL. Each
// save creates a new version; readers fetch the latest or a pinned version.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lhnows1/textvec/internal/model"
	apperrors "github.com/lhnows1/textvec/pkg/errors"
	"github.com/lhnows1/textvec/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	name       TEXT        NOT NULL,
	version    INTEGER     NOT NULL,
	kind       TEXT        NOT NULL,
	spec       TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (name, version)
)`

// Info summarises one registered model.
type Info struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry stores model documents in the models table.
type Registry struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates the Registry and ensures the schema exists.
func New(ctx context.Context, client *postgres.Client) (*Registry, error) {
	if _, err := client.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating models table: %w", err)
	}
	return &Registry{
		client: client,
		logger: slog.Default().With("component", "model-registry"),
	}, nil
}

// Save stores m as the next version of its name and returns that version.
// Re-saving a document identical to the latest version is rejected.
func (r *Registry) Save(ctx context.Context, m *model.Model) (int, error) {
	spec, err := m.Marshal()
	if err != nil {
		return 0, err
	}

	var version int
	err = r.client.InTx(ctx, func(tx *sql.Tx) error {
		var latest sql.NullString
		var latestVersion int
		row := tx.QueryRowContext(ctx,
			`SELECT version, spec FROM models WHERE name = $1 ORDER BY version DESC LIMIT 1 FOR UPDATE`,
			m.Name,
		)
		switch err := row.Scan(&latestVersion, &latest); {
		case err == nil:
			if latest.String == string(spec) {
				return fmt.Errorf("%w: %s version %d has the same spec", apperrors.ErrModelExists, m.Name, latestVersion)
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("querying latest version of %s: %w", m.Name, err)
		}

		version = latestVersion + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO models (name, version, kind, spec) VALUES ($1, $2, $3, $4)`,
			m.Name, version, m.Kind(), string(spec),
		); err != nil {
			return fmt.Errorf("inserting model %s version %d: %w", m.Name, version, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("model saved", "name", m.Name, "version", version, "kind", m.Kind())
	return version, nil
}

// Get fetches the named model: the latest version when version <= 0,
// otherwise the pinned version.
func (r *Registry) Get(ctx context.Context, name string, version int) (*model.Model, int, error) {
	query := `SELECT version, spec FROM models WHERE name = $1 ORDER BY version DESC LIMIT 1`
	args := []any{name}
	if version > 0 {
		query = `SELECT version, spec FROM models WHERE name = $1 AND version = $2`
		args = append(args, version)
	}

	var got int
	var spec string
	if err := r.client.DB.QueryRowContext(ctx, query, args...).Scan(&got, &spec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: %q", apperrors.ErrModelNotFound, name)
		}
		return nil, 0, fmt.Errorf("querying model %s: %w", name, err)
	}

	m, err := model.Parse([]byte(spec))
	if err != nil {
		return nil, 0, fmt.Errorf("stored model %s version %d: %w", name, got, err)
	}
	return m, got, nil
}

// List returns the latest version of every registered model.
func (r *Registry) List(ctx context.Context) ([]Info, error) {
	rows, err := r.client.DB.QueryContext(ctx, `
		SELECT DISTINCT ON (name) name, kind, version, created_at
		FROM models
		ORDER BY name, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Kind, &info.Version, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning model row: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model rows: %w", err)
	}
	return infos, nil
}

// Delete removes every version of the named model.
func (r *Registry) Delete(ctx context.Context, name string) error {
	res, err := r.client.DB.ExecContext(ctx, `DELETE FROM models WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting model %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting model %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", apperrors.ErrModelNotFound, name)
	}
	r.logger.Info("model deleted", "name", name, "versions", affected)
	return nil
}
