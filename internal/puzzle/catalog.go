package puzzle

import (
	"errors"
	"sync"
)

// ErrNoPuzzles is reported by an empty catalog that did not fail to load.
var ErrNoPuzzles = errors.New("puzzle: no puzzles in feed")

// Catalog is the ordered puzzle set of one feed load.
// Solutions are extracted lazily on first use and cached.
type Catalog struct {
	records []Record
	loadErr error

	mu        sync.Mutex
	solutions map[int]Solution
}

// NewCatalog parses blob into a catalog.
func NewCatalog(blob string) *Catalog {
	return &Catalog{records: Parse(blob), solutions: make(map[int]Solution)}
}

// FailedCatalog exposes zero puzzles together with the feed failure.
func FailedCatalog(err error) *Catalog {
	return &Catalog{loadErr: err, solutions: make(map[int]Solution)}
}

// Err returns the feed failure, if any.
func (c *Catalog) Err() error {
	if c.loadErr != nil {
		return c.loadErr
	}
	if len(c.records) == 0 {
		return ErrNoPuzzles
	}
	return nil
}

// Len returns the number of accepted records.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns the records in navigation order.
func (c *Catalog) Records() []Record {
	return append([]Record(nil), c.records...)
}

// Record returns the record at index i.
func (c *Catalog) Record(i int) (Record, bool) {
	if i < 0 || i >= len(c.records) {
		return Record{}, false
	}
	return c.records[i], true
}

// Solution returns the (cached) extracted solution of record i.
func (c *Catalog) Solution(i int) (Solution, bool) {
	rec, ok := c.Record(i)
	if !ok {
		return Solution{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if sol, ok := c.solutions[i]; ok {
		return sol, true
	}
	sol := Extract(rec)
	c.solutions[i] = sol
	return sol, true
}

// Next returns the index following i, wrapping to the first record.
// It returns -1 for an empty catalog.
func (c *Catalog) Next(i int) int {
	if len(c.records) == 0 {
		return -1
	}
	if i < 0 || i+1 >= len(c.records) {
		return 0
	}
	return i + 1
}
