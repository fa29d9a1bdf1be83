package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const preferencesTable = "preferences"

type preferenceRepo struct {
	drv *entsql.Driver
}

func (r *preferenceRepo) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := builder.Select("value").
		From(builder.Table(preferencesTable)).
		Where(entsql.EQ("key", key)).
		Query()

	rows, err := r.drv.QueryContext(ctx, query, args...)
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("get preference %q: %w", key, err)
		}
		return "", false, nil
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		return "", false, fmt.Errorf("scan preference %q: %w", key, err)
	}
	return v, true, nil
}

func (r *preferenceRepo) Set(ctx context.Context, key, value string) error {
	query, args := builder.Insert(preferencesTable).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := r.drv.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (r *preferenceRepo) Delete(ctx context.Context, key string) error {
	query, args := builder.Delete(preferencesTable).
		Where(entsql.EQ("key", key)).
		Query()

	if _, err := r.drv.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

// MemoryPreferenceRepo keeps preferences for the lifetime of the process.
// It stands in for the database when that cannot be opened.
type MemoryPreferenceRepo struct {
	mu     sync.Mutex
	values map[string]string
}

var _ PreferenceRepo = (*MemoryPreferenceRepo)(nil)

func NewMemoryPreferenceRepo() *MemoryPreferenceRepo {
	return &MemoryPreferenceRepo{values: make(map[string]string)}
}

func (r *MemoryPreferenceRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *MemoryPreferenceRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *MemoryPreferenceRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
