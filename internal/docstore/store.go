package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Collections used by fitrank.
const (
	CollectionUserMetrics    = "user_metrics"
	CollectionMetricsHistory = "metrics_history"
	CollectionUserScores     = "user_scores"
	CollectionConfig         = "config"
	CollectionLeaderboards   = "leaderboards"
	CollectionUsers          = "users"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrNotObject = errors.New("document value must encode to a JSON object")
)

type Op string

const (
	OpEq  Op = "=="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents of one collection. Documents without the OrderBy
// field end up after the ones that have it.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

type Document struct {
	ID   string
	Data []byte
}

func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("decode document [%s]: %w", d.ID, err)
	}
	return nil
}

type setOptions struct {
	merge bool
}

type SetOption func(*setOptions)

// WithMerge makes Set overlay the top level fields of the value onto the
// stored document instead of replacing it.
func WithMerge() SetOption {
	return func(o *setOptions) {
		o.merge = true
	}
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is a minimal document database: keyed JSON objects grouped in collections.
type Store interface {
	Get(ctx context.Context, collection, id string, dst any) error
	Set(ctx context.Context, collection, id string, value any, opts ...SetOption) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// ScanAll returns every document of the collection ordered by ascending id.
	ScanAll(ctx context.Context, collection string) ([]Document, error)
}

func encodeObject(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrNotObject
	}
	return raw, nil
}

func mergeObjects(current, update []byte) ([]byte, error) {
	base := make(map[string]json.RawMessage)
	if len(current) > 0 {
		if err := json.Unmarshal(current, &base); err != nil {
			return nil, fmt.Errorf("decode stored document: %w", err)
		}
	}
	overlay := make(map[string]json.RawMessage)
	if err := json.Unmarshal(update, &overlay); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	for k, v := range overlay {
		base[k] = v
	}
	return json.Marshal(base)
}

// normalizeValue maps a filter value onto the JSON value space (float64, string, bool).
func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateQuery(q Query) error {
	for _, f := range q.Where {
		if f.Field == "" {
			return errors.New("filter field empty")
		}
		switch f.Op {
		case OpEq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("unsupported filter op: %q", f.Op)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit: %d", q.Limit)
	}
	return nil
}
