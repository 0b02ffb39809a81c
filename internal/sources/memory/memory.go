// Package memory is an in-process record source seeded from JSON files, one
// file per kind named after it ("income.json", "expense.json", ...).
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sources"
)

type Store struct {
	mu     sync.RWMutex
	data   core.Snapshot
	nextID int64
}

var (
	_ sources.RecordSource   = (*Store)(nil)
	_ sources.OtherSource    = (*Store)(nil)
	_ sources.RecordAppender = (*Store)(nil)
	_ sources.Pinger         = (*Store)(nil)
)

// New returns a store holding s. Records without an ID are numbered.
func New(s core.Snapshot) *Store {
	st := &Store{}
	st.data = st.number(s.Merge(core.Snapshot{}))
	return st
}

// NewFromDir loads every "<kind>.json" under dir. A missing file leaves that
// collection absent. Any other "*.json" file is loaded as a collection of
// unmodelled records whose kind is the file name.
func NewFromDir(dir string) (*Store, error) {
	var snap core.Snapshot
	for _, k := range core.Kinds {
		raw, err := os.ReadFile(filepath.Join(dir, string(k)+".json"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s seed: %w", k, err)
		}
		part, err := core.DecodeRecords(k, raw)
		if err != nil {
			return nil, err
		}
		snap = snap.Merge(part)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".json")
		if _, err := core.ParseKind(name); err == nil {
			continue
		}
		others, err := readOthers(p, name)
		if err != nil {
			return nil, err
		}
		snap = snap.Merge(core.Snapshot{Other: others})
	}
	return New(snap), nil
}

func readOthers(path, kind string) ([]core.Other, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s seed: %w", kind, err)
	}
	var out []core.Other
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s seed: %w", kind, err)
	}
	for i := range out {
		if strings.TrimSpace(out[i].Kind) == "" {
			out[i].Kind = kind
		}
	}
	return out, nil
}

// Fetch returns a copy of the collection for kind narrowed by q.
func (s *Store) Fetch(ctx context.Context, kind core.Kind, q sources.Query) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	if !kind.IsKnown() {
		return core.Snapshot{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.Apply(s.data.Only(kind)), nil
}

// FetchOther returns the unmodelled records narrowed by q.
func (s *Store) FetchOther(ctx context.Context, q sources.Query) ([]core.Other, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Other == nil {
		return nil, nil
	}
	others := append([]core.Other(nil), s.data.Other...)
	return q.Apply(core.Snapshot{Other: others}).Other, nil
}

// AppendRecords adds the records of in, numbering those without an ID.
func (s *Store) AppendRecords(ctx context.Context, in core.Snapshot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.data.Merge(s.number(in))
	return in.Len(), nil
}

func (s *Store) Ping(context.Context) error { return nil }

// number assigns IDs to records that have none. Callers hold the write lock
// or own s exclusively.
func (s *Store) number(in core.Snapshot) core.Snapshot {
	out := in.Merge(core.Snapshot{})
	for _, id := range existingIDs(out) {
		if id > s.nextID {
			s.nextID = id
		}
	}
	assign := func(b *core.Base) {
		if b.ID == 0 {
			s.nextID++
			b.ID = s.nextID
		}
	}
	for i := range out.Income {
		assign(&out.Income[i].Base)
	}
	for i := range out.Expense {
		assign(&out.Expense[i].Base)
	}
	for i := range out.Investment {
		assign(&out.Investment[i].Base)
	}
	for i := range out.Loan {
		assign(&out.Loan[i].Base)
	}
	for i := range out.Interest {
		assign(&out.Interest[i].Base)
	}
	for i := range out.Tax {
		assign(&out.Tax[i].Base)
	}
	for i := range out.Other {
		assign(&out.Other[i].Base)
	}
	return out
}

func existingIDs(s core.Snapshot) []int64 {
	ids := make([]int64, 0, s.Len())
	for _, r := range s.Income {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Expense {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Investment {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Loan {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Interest {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Tax {
		ids = append(ids, r.ID)
	}
	for _, r := range s.Other {
		ids = append(ids, r.ID)
	}
	return ids
}
