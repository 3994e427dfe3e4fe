package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*PsqlStore)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS document
(
    collection VARCHAR(128) NOT NULL,
    id         VARCHAR(256) NOT NULL,
    data       JSONB        NOT NULL,
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS ix_document_history_user
    ON document (collection, (data ->> 'userId'), ((data -> 'recordedAt')));
`

// PsqlStore keeps every collection in a single JSONB table.
type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

func (s *PsqlStore) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.psql.schema")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if _, err = s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create document table: %w", err)
	}
	return nil
}

func (s *PsqlStore) Get(ctx context.Context, collection, id string, dst any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.psql.get")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() {
		if errors.Is(err, ErrNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var data []byte
	err = s.db.QueryRow(ctx,
		`SELECT data FROM document WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select document: %w", err)
	}

	return Document{ID: id, Data: data}.Decode(dst)
}

func (s *PsqlStore) Set(ctx context.Context, collection, id string, value any, opts ...SetOption) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.psql.set")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	data, err := encodeObject(value)
	if err != nil {
		return err
	}

	onConflict := `data = EXCLUDED.data`
	if applySetOptions(opts).merge {
		onConflict = `data = document.data || EXCLUDED.data`
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO document (collection, id, data, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (collection, id) DO UPDATE SET `+onConflict+`, updated_at = now()
	`, collection, id, data)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *PsqlStore) ScanAll(ctx context.Context, collection string) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.psql.scan")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := s.db.Query(ctx,
		`SELECT id, data FROM document WHERE collection = $1 ORDER BY id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return collectDocuments(rows)
}

func (s *PsqlStore) Query(ctx context.Context, collection string, q Query) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.psql.query")
	span.SetAttributes(attribute.String("collection", collection))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	sql, args, err := buildPsqlQuery(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return collectDocuments(rows)
}

// buildPsqlQuery keeps field names out of the SQL text, they travel as parameters of ->.
func buildPsqlQuery(collection string, q Query) (string, []any, error) {
	if err := validateQuery(q); err != nil {
		return "", nil, err
	}

	args := []any{collection}
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM document WHERE collection = $1`)
	for _, f := range q.Where {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		op := string(f.Op)
		if f.Op == OpEq {
			op = "="
		}
		fmt.Fprintf(&sb, ` AND (data -> %s::text) %s %s::jsonb`, param(f.Field), op, param(value))
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY (data -> %s::text) %s NULLS LAST, id ASC`, param(q.OrderBy), dir)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %s`, param(q.Limit))
	}

	return sb.String(), args, nil
}

func collectDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}
