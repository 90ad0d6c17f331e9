// Package cache stores solved penetrance tables in a bolt database,
// keyed by everything that determines the solution, so repeated
// solves of the same model against the same targets are answered
// without running the solver again.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is a global logging variable.
var log = logging.MustGetLogger("cache")

// tables is the bucket holding every cached solution.
var tables = []byte("tables")

// Entry is a cached solution: the two resolved variable values and
// the materialized penetrance column.
type Entry struct {
	X      float64
	Y      float64
	Values []float64
}

// TableCache reads and writes solved tables. A nil database degrades
// every operation to a no-op, so callers need no cache-enabled
// branch.
type TableCache struct {
	db *bolt.DB
}

// Open opens (creating if needed) a table cache at the given path.
func Open(filename string) (*TableCache, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &TableCache{db: db}, nil
}

// New wraps an existing database; db may be nil for a disabled cache.
func New(db *bolt.DB) *TableCache {
	return &TableCache{db: db}
}

// Close closes the underlying database.
func (c *TableCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Key derives the cache key for a solve request. The penetrance
// expression strings stand in for the model definition: two models
// with identical expressions are interchangeable for caching.
func Key(modelName string, penetrances []string, mafs []float64, statistic string, target float64) []byte {
	payload, err := json.Marshal(struct {
		Model       string
		Penetrances []string
		MAFs        []float64
		Statistic   string
		Target      float64
	}{modelName, penetrances, mafs, statistic, target})
	if err != nil {
		// Only unmarshalable types can fail here and ours are plain.
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return sum[:]
}

// Put stores a solved table under the key.
func (c *TableCache) Put(key []byte, e *Entry) error {
	if c.db == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Error("Error serializing table entry", err)
		return err
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(tables)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		log.Error("Error saving table entry", err)
	}
	return err
}

// Get loads a solved table; a miss returns nil with no error.
func (c *TableCache) Get(key []byte) (*Entry, error) {
	if c.db == nil {
		return nil, nil
	}
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(tables)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	log.Noticef("Found cached table (x=%v, y=%v)", e.X, e.Y)
	return &e, nil
}
