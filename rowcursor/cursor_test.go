package rowcursor

import (
	"testing"

	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
)

func col(table, column string) mapping.ColumnRef {
	return mapping.ColumnRef{Table: table, Column: column}
}

func movieRegistryAndQuery(t *testing.T) (*mapping.Registry, *planner.MappedQuery) {
	t.Helper()
	reg := mapping.NewRegistry()
	om, err := mapping.NewObjectMapping("Movie", []mapping.FieldMapping{
		mapping.SqlField{Name: "id", Col: col("movies", "id"), Key: true},
		mapping.SqlField{Name: "title", Col: col("movies", "title")},
	}, nil)
	if err != nil {
		t.Fatalf("NewObjectMapping: %v", err)
	}
	reg.Register(om)

	mq := &planner.MappedQuery{
		Table:   "movies",
		Columns: []mapping.ColumnRef{col("movies", "id"), col("movies", "title")},
		Metas:   []planner.ColumnMeta{{}, {}},
	}
	return reg, mq
}

func TestSqlCursor_AsListGroupsByKeyAndOrdersDeterministically(t *testing.T) {
	reg, mq := movieRegistryAndQuery(t)
	table := Table{
		{I32Cell(2), StringCell("Beta")},
		{I32Cell(1), StringCell("Alpha")},
	}
	c := NewRoot(mq, reg, "Movie", table, true)

	items, err := c.AsList()
	if err != nil {
		t.Fatalf("AsList: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(items))
	}

	title, err := items[0].Field("title")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	leaf, err := title.AsLeaf()
	if err != nil {
		t.Fatalf("AsLeaf: %v", err)
	}
	if leaf.Value() != "Alpha" {
		t.Fatalf("expected deterministic ordering to put Alpha first, got %v", leaf.Value())
	}
}

func TestSqlCursor_AsListIsEmptyWhenAllKeysFailedJoin(t *testing.T) {
	reg, mq := movieRegistryAndQuery(t)
	table := Table{
		{FailedJoinCell(), FailedJoinCell()},
	}
	c := NewRoot(mq, reg, "Movie", table, true)

	items, err := c.AsList()
	if err != nil {
		t.Fatalf("AsList: %v", err)
	}
	if items != nil {
		t.Fatalf("expected nil (empty) list when every row's key is FailedJoin, got %v", items)
	}
}

func TestSqlCursor_AsNullableReportsNoneOnFailedJoinKey(t *testing.T) {
	reg, mq := movieRegistryAndQuery(t)
	table := Table{
		{FailedJoinCell(), FailedJoinCell()},
	}
	c := NewRoot(mq, reg, "Movie", table, false)

	_, ok, err := c.AsNullable()
	if err != nil {
		t.Fatalf("AsNullable: %v", err)
	}
	if ok {
		t.Fatalf("expected AsNullable to report None for a FailedJoin key row")
	}
}

func TestSqlCursor_FieldReadsHeadRowForSimpleColumn(t *testing.T) {
	reg, mq := movieRegistryAndQuery(t)
	table := Table{
		{I32Cell(1), StringCell("Alpha")},
	}
	c := NewRoot(mq, reg, "Movie", table, false)

	title, err := c.Field("title")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	leaf, err := title.AsLeaf()
	if err != nil {
		t.Fatalf("AsLeaf: %v", err)
	}
	if leaf.Value() != "Alpha" {
		t.Fatalf("expected Alpha, got %v", leaf.Value())
	}
}

func TestLeafCursor_IsNullableOnFailedJoinAndNull(t *testing.T) {
	failed := &LeafCursor{cell: FailedJoinCell()}
	if !failed.IsNullable() {
		t.Fatalf("expected a FailedJoin leaf to be nullable")
	}
	null := &LeafCursor{cell: NullCell()}
	if !null.IsNullable() {
		t.Fatalf("expected a SQL null leaf to be nullable")
	}
	present := &LeafCursor{cell: StringCell("x")}
	if present.IsNullable() {
		t.Fatalf("expected a present value to not be nullable")
	}
}
