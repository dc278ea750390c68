package sqldriver

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/rowcursor"
	"github.com/eddieafk/mapperql/sqlfrag"
)

// defaultEncoder passes a bind value through unchanged, used for any codec
// the EncoderRegistry has no specific entry for.
type defaultEncoder struct{}

func (defaultEncoder) Encode(v any) (any, error) { return v, nil }

// EncoderRegistry resolves a mapping.Codec to the sqlfrag.Encoder that
// knows how to bind its Go value, keyed by Codec.Name() (the Codec contract
// compares by name here rather than identity, since the registry is built
// once at startup from a fixed set of known codec names, §6).
type EncoderRegistry map[string]sqlfrag.Encoder

// EncoderFor implements the function shape planner.MappedQuery.Fragment and
// interp.Resolve expect.
func (r EncoderRegistry) EncoderFor(c mapping.Codec) sqlfrag.Encoder {
	if c == nil {
		return defaultEncoder{}
	}
	if e, ok := r[c.Name()]; ok {
		return e
	}
	return defaultEncoder{}
}

// DB is the effectful SQL driver boundary: it plans a MappedQuery into a
// Fragment, renders and executes it, and decodes the result set into a
// rowcursor.Table. It implements interp.Fetcher.
type DB struct {
	conn     *sql.DB
	dialect  Dialect
	encoders EncoderRegistry
}

// Open connects to a PostgreSQL database via lib/pq.
func Open(dataSourceName string, encoders EncoderRegistry) (*DB, error) {
	conn, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, &DriverError{Op: "open", Err: err}
	}
	if encoders == nil {
		encoders = EncoderRegistry{}
	}
	return &DB{conn: conn, dialect: Postgres{}, encoders: encoders}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return &DriverError{Op: "close", Err: err}
	}
	return nil
}

// Fetch plans mq's Fragment, executes it, and decodes every row into a
// rowcursor.Table, translating a SQL null in an outer-joined column into
// FailedJoinCell rather than NullCell (§4.G's FailedJoin sentinel).
func (db *DB) Fetch(ctx context.Context, mq *planner.MappedQuery) (rowcursor.Table, error) {
	frag, err := mq.Fragment(db.encoders.EncoderFor)
	if err != nil {
		return nil, err
	}
	sqlText, args, err := Render(db.dialect, frag)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, &DriverError{Op: "query", Err: err}
	}
	defer rows.Close()

	raw := make([]any, len(mq.Columns))
	ptrs := make([]any, len(raw))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	var table rowcursor.Table
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &DriverError{Op: "scan", Err: err}
		}
		row := make(rowcursor.Row, len(raw))
		for i, v := range raw {
			row[i] = decodeCell(v, mq.Metas[i])
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "rows", Err: err}
	}

	return table, nil
}

func decodeCell(v any, meta planner.ColumnMeta) rowcursor.Cell {
	if v == nil {
		if meta.IsFromOuterJoin {
			return rowcursor.FailedJoinCell()
		}
		return rowcursor.NullCell()
	}
	switch t := v.(type) {
	case int64:
		return rowcursor.I64Cell(t)
	case int32:
		return rowcursor.I32Cell(t)
	case float64:
		return rowcursor.F64Cell(t)
	case bool:
		return rowcursor.BoolCell(t)
	case string:
		return rowcursor.StringCell(t)
	case []byte:
		return rowcursor.BytesCell(t)
	default:
		return rowcursor.CustomCell(t)
	}
}
