package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rustyeddy/gridbot/exchange"
)

var (
	// ErrNotFound means the store holds no ledger yet.
	ErrNotFound = errors.New("ledger not found")
	// ErrMalformed means the persisted ledger exists but cannot be parsed.
	ErrMalformed = errors.New("malformed ledger")
)

// State is the persisted form of the ledger.
type State struct {
	Buy  []exchange.Order `json:"buy"`
	Sell []exchange.Order `json:"sell"`
}

type Store interface {
	Load() (State, error)
	Save(State) error
}

// FileStore keeps the ledger as a single JSON document. Every Save replaces
// the whole file through a temp file and rename, so a crash leaves either
// the previous or the new ledger on disk.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (fs *FileStore) Load() (State, error) {
	data, err := os.ReadFile(fs.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("read ledger %s: %w", fs.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, ErrNotFound
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("%w: %s: %v", ErrMalformed, fs.Path, err)
	}
	return st, nil
}

func (fs *FileStore) Save(st State) error {
	if st.Buy == nil {
		st.Buy = []exchange.Order{}
	}
	if st.Sell == nil {
		st.Sell = []exchange.Order{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(fs.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, fs.Path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// MemStore is an in-process Store, mostly for tests.
type MemStore struct {
	mu    sync.Mutex
	state *State
	saves int
}

func (m *MemStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, ErrNotFound
	}
	return cloneState(*m.state), nil
}

func (m *MemStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneState(st)
	m.state = &c
	m.saves++
	return nil
}

// Saves reports how many times the ledger has been written.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneState(st State) State {
	return State{
		Buy:  append([]exchange.Order(nil), st.Buy...),
		Sell: append([]exchange.Order(nil), st.Sell...),
	}
}
