package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
)

// ErrAmbiguous is returned when an untyped reference names resources of
// several types.
var ErrAmbiguous = errors.New("postgres: ambiguous resource reference")

// ResourceRepository stores resources as their YAML documents, keyed by name
// and type. It satisfies ruleset.Source.
type ResourceRepository struct {
	db *pgxpool.Pool
}

var _ ruleset.Source = (*ResourceRepository)(nil)

// NewResourceRepository creates a ResourceRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewResourceRepository(db *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func encodeResource(res ruleset.Resource) (string, error) {
	var buf bytes.Buffer
	if err := ruleset.Encode(&buf, res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const upsertResource = `
	INSERT INTO resources (name, type, traits, body, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (name, type) DO UPDATE
	SET traits = EXCLUDED.traits, body = EXCLUDED.body, updated_at = NOW()`

// Upsert stores res, replacing any stored resource with the same name and
// type.
//
// Precondition: res must be non-nil and named.
func (r *ResourceRepository) Upsert(ctx context.Context, res ruleset.Resource) error {
	body, err := encodeResource(res)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ruleset.RefOf(res), err)
	}
	base := res.Base()
	if _, err := r.db.Exec(ctx, upsertResource, base.Name, res.Type().String(), traitsOf(base), body); err != nil {
		return fmt.Errorf("upserting %s: %w", ruleset.RefOf(res), err)
	}
	return nil
}

// UpsertAll stores every resource in rs in a single transaction.
//
// Postcondition: either every resource is stored or none is.
func (r *ResourceRepository) UpsertAll(ctx context.Context, rs []ruleset.Resource) error {
	batch := &pgx.Batch{}
	for _, res := range rs {
		body, err := encodeResource(res)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", ruleset.RefOf(res), err)
		}
		base := res.Base()
		batch.Queue(upsertResource, base.Name, res.Type().String(), traitsOf(base), body)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d resources: %w", len(rs), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing resources: %w", err)
	}
	return nil
}

func traitsOf(c *ruleset.Common) []string {
	if c.Traits == nil {
		return []string{}
	}
	return c.Traits
}

// Fetch loads the resource ref names. The reference's modifier is ignored.
//
// Postcondition: Returns ruleset.ErrNotFound when nothing matches and
// ErrAmbiguous when an untyped reference matches several types.
func (r *ResourceRepository) Fetch(ctx context.Context, ref rref.Ref) (ruleset.Resource, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if ref.IsTyped() {
		rows, err = r.db.Query(ctx,
			`SELECT body FROM resources WHERE name = $1 AND type = $2`,
			ref.Name, ref.Type.String())
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT body FROM resources WHERE name = $1 LIMIT 2`,
			ref.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref, err)
	}
	bodies, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref, err)
	}

	switch len(bodies) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ruleset.ErrNotFound, ref)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, ref)
	}
	rs, err := ruleset.Decode([]byte(bodies[0]))
	if err != nil {
		return nil, fmt.Errorf("decoding stored %s: %w", ref, err)
	}
	return rs[0], nil
}

// List returns references to the stored resources of type t, sorted by name.
// AnyType lists every resource.
func (r *ResourceRepository) List(ctx context.Context, t rref.Type) ([]rref.Ref, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if t == rref.AnyType {
		rows, err = r.db.Query(ctx, `SELECT name, type FROM resources ORDER BY name, type`)
	} else {
		rows, err = r.db.Query(ctx, `SELECT name, type FROM resources WHERE type = $1 ORDER BY name`, t.String())
	}
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return scanRefs(rows)
}

// ListByTrait returns references to the stored resources carrying trait.
func (r *ResourceRepository) ListByTrait(ctx context.Context, trait string) ([]rref.Ref, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, type FROM resources WHERE $1 = ANY(traits) ORDER BY name, type`, trait)
	if err != nil {
		return nil, fmt.Errorf("listing resources with trait %q: %w", trait, err)
	}
	return scanRefs(rows)
}

// Delete removes the resource ref names.
//
// Precondition: ref must be typed.
// Postcondition: Returns ruleset.ErrNotFound if nothing was deleted.
func (r *ResourceRepository) Delete(ctx context.Context, ref rref.Ref) error {
	if !ref.IsTyped() {
		return fmt.Errorf("deleting %s: reference must be typed", ref)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM resources WHERE name = $1 AND type = $2`, ref.Name, ref.Type.String())
	if err != nil {
		return fmt.Errorf("deleting %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ruleset.ErrNotFound, ref)
	}
	return nil
}

func scanRefs(rows pgx.Rows) ([]rref.Ref, error) {
	defer rows.Close()

	var refs []rref.Ref
	for rows.Next() {
		var name, typeName string
		if err := rows.Scan(&name, &typeName); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		rt, err := rref.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("stored resource %q: %w", name, err)
		}
		refs = append(refs, rref.Typed(name, rt))
	}
	return refs, rows.Err()
}
