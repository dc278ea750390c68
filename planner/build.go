package planner

import (
	"sort"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
)

type columnDraft struct {
	col              mapping.ColumnRef
	declaredNullable bool
	variantField     bool
}

type builder struct {
	reg *mapping.Registry

	columnOrder []mapping.ColumnRef
	columnSeen  map[string]bool
	drafts      map[string]*columnDraft

	joinOrder []mapping.Join
	joinSeen  map[string]bool

	// topology maps a parent table to the set of distinct child tables it
	// introduces, used for root-table selection (§4.E step 6).
	topology    map[string]map[string]bool
	childTables map[string]bool

	predicates  []PredicateEntry
	postFilters []PredicateEntry
	deferred    []DeferredFetch
}

// Build runs the planner's single accumulating pass over q starting at path
// within tpe, producing a MappedQuery (§4.E).
func Build(reg *mapping.Registry, q algebra.Query, path []string, tpe string) (*MappedQuery, error) {
	b := &builder{
		reg:         reg,
		columnSeen:  map[string]bool{},
		drafts:      map[string]*columnDraft{},
		joinSeen:    map[string]bool{},
		topology:    map[string]map[string]bool{},
		childTables: map[string]bool{},
	}

	if err := b.visitQuery(q, path, tpe); err != nil {
		return nil, err
	}

	root, err := b.selectRootTable()
	if err != nil {
		return nil, err
	}

	ordered, err := b.orderJoins(root)
	if err != nil {
		return nil, err
	}

	metas := make([]ColumnMeta, len(b.columnOrder))
	for i, c := range b.columnOrder {
		d := b.drafts[colKey(c)]
		metas[i] = ColumnMeta{
			IsFromOuterJoin: b.childTables[c.Table],
			Codec:           c.Codec,
			Nullable:        d.declaredNullable || d.variantField || b.childTables[c.Table],
		}
	}

	return &MappedQuery{
		Table:       root,
		Columns:     b.columnOrder,
		Metas:       metas,
		Predicates:  b.predicates,
		Joins:       ordered,
		PostFilters: b.postFilters,
		Deferred:    b.deferred,
	}, nil
}

func colKey(c mapping.ColumnRef) string { return c.Table + "." + c.Column }

func (b *builder) addColumn(col mapping.ColumnRef, declaredNullable, variantField bool) {
	k := colKey(col)
	if !b.columnSeen[k] {
		b.columnSeen[k] = true
		b.columnOrder = append(b.columnOrder, col)
		b.drafts[k] = &columnDraft{col: col}
	}
	d := b.drafts[k]
	d.declaredNullable = d.declaredNullable || declaredNullable
	d.variantField = d.variantField || variantField
}

func (b *builder) addJoin(j mapping.Join) {
	k := j.NormalKey()
	if !b.joinSeen[k] {
		b.joinSeen[k] = true
		b.joinOrder = append(b.joinOrder, j)
	}
	b.childTables[j.Child.Table] = true
	if b.topology[j.Parent.Table] == nil {
		b.topology[j.Parent.Table] = map[string]bool{}
	}
	b.topology[j.Parent.Table][j.Child.Table] = true
}

// addRequiredAt implements §4.E step 1: at every visited (path, tpe), add
// every key column and discriminator column of the mapping, plus the
// discriminator columns of every interface it implements.
func (b *builder) addRequiredAt(path []string, tpe string) error {
	om, ok := b.reg.ObjectMappingFor(tpe, path)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no mapping registered for type"}
	}
	for _, c := range om.KeyColumns() {
		b.addColumn(c, false, false)
	}
	for _, c := range om.DiscriminatorColumns() {
		b.addColumn(c, false, false)
	}
	for _, iface := range om.Implements {
		im, ok := b.reg.InterfaceMapping(iface)
		if !ok {
			continue
		}
		for _, fm := range im.Fields {
			if mapping.IsDiscriminator(fm) {
				if c, ok := mapping.ColumnOf(fm); ok {
					b.addColumn(c, false, false)
				}
			}
		}
	}
	return nil
}

// ensureColumnProjected resolves hops starting at (path, tpe), adding the
// join (and both endpoints) for every intermediate hop and the final column,
// implementing §4.E step 4's "field-valued paths are nevertheless projected
// and joined". cursorBacked is true when the terminal hop names a
// CursorField/CursorAttribute rather than a SQL column, in which case the
// returned ColumnRef is the zero value and the caller must fall back to
// post-fetch evaluation (§4.B) instead of rendering this path into SQL.
func (b *builder) ensureColumnProjected(path []string, tpe string, hops []string) (col mapping.ColumnRef, cursorBacked bool, err error) {
	curPath := path
	curType := tpe

	for i, hop := range hops {
		if err := b.addRequiredAt(curPath, curType); err != nil {
			return mapping.ColumnRef{}, false, err
		}
		om, _ := b.reg.ObjectMappingFor(curType, curPath)
		fm, ok := om.Field(hop)
		if !ok {
			return mapping.ColumnRef{}, false, &MappingError{Path: curPath, Type: curType, Msg: "no field mapping for " + hop}
		}

		last := i == len(hops)-1
		if last {
			switch v := fm.(type) {
			case mapping.SqlField:
				b.addColumn(v.Col, false, false)
				return v.Col, false, nil
			case mapping.SqlAttribute:
				b.addColumn(v.Col, v.Nullable, false)
				return v.Col, false, nil
			case mapping.SqlJson:
				b.addColumn(v.Col, false, false)
				return v.Col, false, nil
			case mapping.CursorField:
				for _, sib := range v.RequiredSiblings {
					if err := b.ensureSiblingProjected(curPath, curType, sib); err != nil {
						return mapping.ColumnRef{}, false, err
					}
				}
				return mapping.ColumnRef{}, true, nil
			case mapping.CursorAttribute:
				for _, sib := range v.RequiredSiblings {
					if err := b.ensureSiblingProjected(curPath, curType, sib); err != nil {
						return mapping.ColumnRef{}, false, err
					}
				}
				return mapping.ColumnRef{}, true, nil
			default:
				return mapping.ColumnRef{}, false, &MappingError{Path: curPath, Type: curType, Msg: hop + " is not column-backed"}
			}
		}

		obj, ok := fm.(mapping.SqlObject)
		if !ok {
			return mapping.ColumnRef{}, false, &MappingError{Path: curPath, Type: curType, Msg: hop + " is not traversable"}
		}
		for _, j := range obj.Joins {
			b.addColumn(j.Parent, false, false)
			b.addColumn(j.Child, false, false)
			b.addJoin(j)
		}
		curPath = append(append([]string{}, curPath...), hop)
		curType = obj.TargetType
	}

	return mapping.ColumnRef{}, false, &MappingError{Path: path, Type: tpe, Msg: "empty path"}
}

// ensureSiblingProjected adds the column contribution of a single named
// sibling field without recursing into its own selection — used for
// CursorField/CursorAttribute's RequiredSiblings (§4.E step 2).
func (b *builder) ensureSiblingProjected(path []string, tpe, name string) error {
	om, ok := b.reg.ObjectMappingFor(tpe, path)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no mapping registered for type"}
	}
	fm, ok := om.Field(name)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no field mapping for required sibling " + name}
	}
	switch v := fm.(type) {
	case mapping.SqlField:
		b.addColumn(v.Col, false, false)
	case mapping.SqlAttribute:
		b.addColumn(v.Col, v.Nullable, false)
	case mapping.SqlJson:
		b.addColumn(v.Col, false, false)
	case mapping.SqlObject:
		for _, j := range v.Joins {
			b.addColumn(j.Parent, false, false)
			b.addColumn(j.Child, false, false)
			b.addJoin(j)
		}
	case mapping.CursorField:
		for _, sib := range v.RequiredSiblings {
			if err := b.ensureSiblingProjected(path, tpe, sib); err != nil {
				return err
			}
		}
	case mapping.CursorAttribute:
		for _, sib := range v.RequiredSiblings {
			if err := b.ensureSiblingProjected(path, tpe, sib); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) visitField(path []string, tpe string, sel algebra.Select) error {
	if err := b.addRequiredAt(path, tpe); err != nil {
		return err
	}
	om, ok := b.reg.ObjectMappingFor(tpe, path)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no mapping registered for type"}
	}
	fm, ok := om.Field(sel.Name)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no field mapping for " + sel.Name}
	}

	childPath := append(append([]string{}, path...), sel.Name)

	switch v := fm.(type) {
	case mapping.SqlField:
		b.addColumn(v.Col, false, false)
		return nil
	case mapping.SqlAttribute:
		b.addColumn(v.Col, v.Nullable, false)
		return nil
	case mapping.SqlJson:
		b.addColumn(v.Col, false, false)
		return nil
	case mapping.SqlObject:
		for _, j := range v.Joins {
			b.addColumn(j.Parent, false, false)
			b.addColumn(j.Child, false, false)
			b.addJoin(j)
		}
		return b.visitQuery(sel.Child, childPath, v.TargetType)
	case mapping.CursorField:
		for _, sib := range v.RequiredSiblings {
			if err := b.ensureSiblingProjected(path, tpe, sib); err != nil {
				return err
			}
		}
		return nil
	case mapping.CursorAttribute:
		for _, sib := range v.RequiredSiblings {
			if err := b.ensureSiblingProjected(path, tpe, sib); err != nil {
				return err
			}
		}
		return nil
	default:
		return &MappingError{Path: path, Type: tpe, Msg: "unrecognized field mapping kind"}
	}
}

// processPredicate resolves every path pred references. A predicate whose
// paths are all column-backed compiles into SQL as before; a predicate that
// touches even one cursor-computed path (§4.B) is routed to PostFilters
// instead, evaluated against the fetched row by the Row-table Cursor rather
// than rendered into the WHERE clause.
func (b *builder) processPredicate(path []string, tpe string, pred algebra.Predicate) error {
	resolved := map[string]mapping.ColumnRef{}
	cursorOnly := false
	for _, hops := range pred.Paths() {
		col, cursorBacked, err := b.ensureColumnProjected(path, tpe, hops)
		if err != nil {
			return err
		}
		if cursorBacked {
			cursorOnly = true
			continue
		}
		resolved[pathKey(hops)] = col
	}
	entry := PredicateEntry{Path: path, Type: tpe, Pred: pred, ResolvedPaths: resolved}
	if cursorOnly {
		b.postFilters = append(b.postFilters, entry)
	} else {
		b.predicates = append(b.predicates, entry)
	}
	return nil
}

// visitQuery implements §4.E step 5's dispatch table.
func (b *builder) visitQuery(q algebra.Query, path []string, tpe string) error {
	switch v := q.(type) {
	case algebra.Select:
		return b.visitField(path, tpe, v)
	case algebra.Context:
		return b.visitQuery(v.Child, v.Path, tpe)
	case algebra.Narrow:
		return b.visitQuery(v.Child, path, v.TargetType)
	case algebra.Filter:
		if err := b.processPredicate(path, tpe, v.Pred); err != nil {
			return err
		}
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Unique:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Group:
		for _, c := range v.Children {
			if err := b.visitQuery(c, path, tpe); err != nil {
				return err
			}
		}
		return nil
	case algebra.Wrap:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Rename:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Limit:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Offset:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.OrderBy:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.GroupBy:
		return b.visitQuery(v.Child, path, tpe)
	case algebra.Defer:
		return b.visitDefer(path, tpe, v)
	case algebra.Empty, algebra.Component, algebra.Introspect:
		return nil
	default:
		return nil
	}
}

// visitDefer handles a field the Staging Elaborator cut over to a second
// round trip. It projects only the parent-side column of each of the
// field's Joins (not the full join: there is deliberately no in-SQL join
// for a staged field) and records a DeferredFetch for the executor to
// resolve once this query's rows are in hand.
func (b *builder) visitDefer(path []string, tpe string, d algebra.Defer) error {
	if err := b.addRequiredAt(path, tpe); err != nil {
		return err
	}
	om, ok := b.reg.ObjectMappingFor(tpe, path)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no mapping registered for type"}
	}
	fm, ok := om.Field(d.Name)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: "no field mapping for " + d.Name}
	}
	obj, ok := fm.(mapping.SqlObject)
	if !ok {
		return &MappingError{Path: path, Type: tpe, Msg: d.Name + " is not a staged object field"}
	}
	for _, j := range obj.Joins {
		b.addColumn(j.Parent, false, false)
	}

	b.deferred = append(b.deferred, DeferredFetch{
		Path:        append(append([]string{}, path...), d.Name),
		OwnerPath:   path,
		OwnerType:   tpe,
		FieldName:   d.Name,
		StagingJoin: d.StagingJoin,
		TargetType:  obj.TargetType,
		List:        obj.List,
	})
	return nil
}

// selectRootTable implements §4.E step 6: tables referenced by columns that
// are not the child side of any join are candidates; if exactly one, it's
// the root; otherwise the table that is the parent of the most distinct
// child tables.
func (b *builder) selectRootTable() (string, error) {
	candidateSet := map[string]bool{}
	for _, c := range b.columnOrder {
		if !b.childTables[c.Table] {
			candidateSet[c.Table] = true
		}
	}
	candidates := make([]string, 0, len(candidateSet))
	for t := range candidateSet {
		candidates = append(candidates, t)
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		return "", &MappingError{Msg: "no candidate root table found"}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	best := candidates[0]
	bestCount := -1
	for _, t := range candidates {
		count := len(b.topology[t])
		if count > bestCount {
			bestCount = count
			best = t
		}
	}
	return best, nil
}

// orderJoins implements §4.E step 7: starting with seen={root}, repeatedly
// extract joins whose parent is already seen and add their child table. No
// progress on a pass is fatal (inconsistent mapping, §7 kind 1).
func (b *builder) orderJoins(root string) ([]mapping.Join, error) {
	remaining := append([]mapping.Join(nil), b.joinOrder...)
	seen := map[string]bool{root: true}
	var ordered []mapping.Join

	for len(remaining) > 0 {
		progressed := false
		var next []mapping.Join
		for _, j := range remaining {
			if seen[j.Parent.Table] {
				ordered = append(ordered, j)
				seen[j.Child.Table] = true
				progressed = true
				continue
			}
			next = append(next, j)
		}
		if !progressed {
			return nil, &MappingError{Msg: "join topology has no admissible order (cycle or disconnected join)"}
		}
		remaining = next
	}

	return ordered, nil
}
