// Package store holds the active table's records and persists them through
// a Source.
package store

import (
	"context"
	"sort"

	"github.com/omniql-engine/flatql/engine/models"
)

// Source loads and saves whole tables.
type Source interface {
	// Load returns the table's records. A missing table is empty, and the
	// source creates its resource as a side effect.
	Load(ctx context.Context, table string) ([]models.Record, error)
	// Save replaces the table's stored records.
	Save(ctx context.Context, table string, records []models.Record) error
}

// Lister is implemented by sources that can enumerate their tables.
type Lister interface {
	Tables(ctx context.Context) ([]string, error)
}

// ============================================================================
// MEMORY
// ============================================================================

// MemorySource keeps tables in process memory. It backs the "memory"
// database identifier.
type MemorySource struct {
	tables map[string][]models.Record
}

// NewMemorySource returns an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string][]models.Record)}
}

func (m *MemorySource) Load(_ context.Context, table string) ([]models.Record, error) {
	records, ok := m.tables[table]
	if !ok {
		m.tables[table] = nil
		return nil, nil
	}
	return models.CloneRecords(records), nil
}

func (m *MemorySource) Save(_ context.Context, table string, records []models.Record) error {
	m.tables[table] = models.CloneRecords(records)
	return nil
}

func (m *MemorySource) Tables(context.Context) ([]string, error) {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
