package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore keeps documents in memory. Used in tests and for local runs.
type MemStore struct {
	mutex sync.RWMutex
	docs  map[string]map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]map[string][]byte),
	}
}

func (s *MemStore) Get(_ context.Context, collection, id string, dst any) error {
	s.mutex.RLock()
	data, ok := s.docs[collection][id]
	s.mutex.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return Document{ID: id, Data: data}.Decode(dst)
}

func (s *MemStore) Set(_ context.Context, collection, id string, value any, opts ...SetOption) error {
	data, err := encodeObject(value)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string][]byte)
		s.docs[collection] = coll
	}

	if applySetOptions(opts).merge {
		if data, err = mergeObjects(coll[id], data); err != nil {
			return err
		}
	}
	coll[id] = data
	return nil
}

func (s *MemStore) ScanAll(_ context.Context, collection string) ([]Document, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.sortedDocs(collection), nil
}

func (s *MemStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	filters := make([]Filter, len(q.Where))
	for i, f := range q.Where {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		filters[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}

	s.mutex.RLock()
	docs := s.sortedDocs(collection)
	s.mutex.RUnlock()

	type candidate struct {
		doc    Document
		fields map[string]any
	}
	var matched []candidate
	for _, d := range docs {
		fields := make(map[string]any)
		if err := json.Unmarshal(d.Data, &fields); err != nil {
			return nil, err
		}
		if matchesAll(fields, filters) {
			matched = append(matched, candidate{doc: d, fields: fields})
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, aok := matched[i].fields[q.OrderBy]
			b, bok := matched[j].fields[q.OrderBy]
			if !aok || !bok {
				return aok && !bok
			}
			c, ok := compareValues(a, b)
			if !ok {
				return false
			}
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	result := make([]Document, len(matched))
	for i, c := range matched {
		result[i] = c.doc
	}
	return result, nil
}

func (s *MemStore) sortedDocs(collection string) []Document {
	coll := s.docs[collection]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, len(ids))
	for i, id := range ids {
		data := make([]byte, len(coll[id]))
		copy(data, coll[id])
		docs[i] = Document{ID: id, Data: data}
	}
	return docs
}

func matchesAll(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		c, ok := compareValues(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpGt:
			if c <= 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders two decoded JSON scalars of the same kind.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}
