// Package sqlite persists the in-memory species store to a single SQLite
// table as JSON snapshots, one bucket per state component.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"speciescore/internal/infra/persistence/memory"
	"speciescore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

type (
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// Result aliases domain.Result.
	Result = domain.Result
)

type registryState struct {
	PlayerID uint32 `json:"player_id,omitempty"`
	LastID   uint32 `json:"last_id"`
}

// Store snapshots the full in-memory state after every successful
// transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *RulesEngine) (*Store, error) {
	if path == "" {
		path = "speciescore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"species", "patches", "registry"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}

	var snapshot memory.Snapshot
	if data, ok := payloads["species"]; ok {
		if err := json.Unmarshal(data, &snapshot.Species); err != nil {
			return fmt.Errorf("decode species: %w", err)
		}
	}
	if data, ok := payloads["patches"]; ok {
		if err := json.Unmarshal(data, &snapshot.Patches); err != nil {
			return fmt.Errorf("decode patches: %w", err)
		}
	}
	if data, ok := payloads["registry"]; ok {
		var registry registryState
		if err := json.Unmarshal(data, &registry); err != nil {
			return fmt.Errorf("decode registry: %w", err)
		}
		snapshot.PlayerID = registry.PlayerID
		snapshot.LastID = registry.LastID
	}
	return s.ImportState(snapshot)
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.ExportState()
	if err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "species":
			data, err = json.Marshal(snapshot.Species)
		case "patches":
			data, err = json.Marshal(snapshot.Patches)
		case "registry":
			data, err = json.Marshal(registryState{PlayerID: snapshot.PlayerID, LastID: snapshot.LastID})
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite when the commit succeeds.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
