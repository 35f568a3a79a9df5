// Package cache holds a session's single cached result.
//
// The slot is keyed by the inlined rendering of the query. Run reuses the
// slot while the key is unchanged, including after the rows were drained:
// exhaustion is sticky until the key changes or Reset is called.
package cache

import (
	"github.com/rs/zerolog"

	"github.com/omniql-engine/flatql/engine/models"
)

// Cache is a single-slot result cache. It is not safe for concurrent use.
type Cache struct {
	key     string
	rows    []models.Record
	valid   bool
	drained bool
	log     zerolog.Logger
}

// New returns an empty cache.
func New(log zerolog.Logger) *Cache {
	return &Cache{log: log}
}

// Run fills the slot for key by calling exec, unless the slot already holds
// key. A failed exec leaves the slot empty.
func (c *Cache) Run(key string, exec func() ([]models.Record, error)) error {
	if c.valid && c.key == key {
		c.log.Debug().Bool("drained", c.drained).Msg("result cache hit")
		return nil
	}
	rows, err := exec()
	if err != nil {
		c.Reset()
		return err
	}
	c.key, c.rows, c.valid, c.drained = key, rows, true, false
	c.log.Debug().Int("rows", len(rows)).Msg("result cache filled")
	return nil
}

// Fetch pops the next record. The boolean is false once the rows are
// exhausted, which also marks the slot drained.
func (c *Cache) Fetch() (models.Record, bool) {
	if !c.valid || c.drained || len(c.rows) == 0 {
		c.drained = true
		return models.Record{}, false
	}
	rec := c.rows[0]
	c.rows = c.rows[1:]
	return rec, true
}

// FetchAll returns every remaining record and drains the slot.
func (c *Cache) FetchAll() []models.Record {
	rows := c.rows
	if c.drained || !c.valid {
		rows = nil
	}
	c.rows, c.drained = nil, true
	if rows == nil {
		return []models.Record{}
	}
	return rows
}

// Peek returns the remaining records without consuming them.
func (c *Cache) Peek() []models.Record {
	if !c.valid || c.drained {
		return nil
	}
	return c.rows
}

// Reset empties the slot so the next Run executes regardless of its key.
func (c *Cache) Reset() {
	c.key, c.rows, c.valid, c.drained = "", nil, false, false
}

// Key returns the key of the cached result, or "".
func (c *Cache) Key() string {
	return c.key
}

// Exhausted reports whether the cached rows were drained.
func (c *Cache) Exhausted() bool {
	return c.drained
}
