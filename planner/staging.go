package planner

import (
	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/mapping/typegraph"
)

// seen tracks, along one pre-order path through the query tree, the object
// types already visited and whether a non-leaf list has already been
// crossed (§4.F "Seen = (context, seenTypes, seenList)").
type seen struct {
	types    map[string]bool
	sawList  bool
}

func freshSeen() seen {
	return seen{types: map[string]bool{}}
}

func (s seen) withType(tpe string) seen {
	next := seen{types: make(map[string]bool, len(s.types)+1), sawList: s.sawList}
	for k := range s.types {
		next.types[k] = true
	}
	next.types[tpe] = true
	return next
}

func (s seen) withList(inList bool) seen {
	next := s
	next.sawList = s.sawList || inList
	return next
}

// Elaborate rewrites q, inserting staging boundaries (§4.F) wherever a
// single SQL statement cannot answer a sub-selection: a non-leaf list
// nested inside another non-leaf list, a type re-entered along the current
// path, or an interface field with no discriminator column. schemaRoot
// names the type a staged sub-query's Defer is ultimately re-planned
// against when the parent mapping offers no better candidate.
func Elaborate(reg *mapping.Registry, q algebra.Query, path []string, tpe, schemaRoot string) (algebra.Query, error) {
	tg, err := reg.BuildTypeGraph()
	if err != nil {
		return nil, err
	}
	e := &elaborator{reg: reg, schemaRoot: schemaRoot, typeGraph: tg}
	return e.walk(q, path, tpe, freshSeen())
}

type elaborator struct {
	reg        *mapping.Registry
	schemaRoot string
	typeGraph  *typegraph.Graph
}

func (e *elaborator) walk(q algebra.Query, path []string, tpe string, s seen) (algebra.Query, error) {
	switch v := q.(type) {
	case algebra.Select:
		return e.walkSelect(v, path, tpe, s)
	case algebra.Context:
		child, err := e.walk(v.Child, v.Path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Context{Path: v.Path, Child: child}, nil
	case algebra.Narrow:
		child, err := e.walk(v.Child, path, v.TargetType, s)
		if err != nil {
			return nil, err
		}
		return algebra.Narrow{TargetType: v.TargetType, Child: child}, nil
	case algebra.Filter:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Filter{Pred: v.Pred, Child: child}, nil
	case algebra.Unique:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Unique{Child: child}, nil
	case algebra.Group:
		children := make([]algebra.Query, len(v.Children))
		for i, c := range v.Children {
			// siblings within one Group share seenList, per §4.F "Other shapes
			// traversed structurally, preserving seenList across siblings".
			child, err := e.walk(c, path, tpe, s)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return algebra.NewGroup(children...), nil
	case algebra.Wrap:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Wrap{Name: v.Name, Child: child}, nil
	case algebra.Rename:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Rename{Name: v.Name, Child: child}, nil
	case algebra.Limit:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Limit{N: v.N, Child: child}, nil
	case algebra.Offset:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Offset{N: v.N, Child: child}, nil
	case algebra.OrderBy:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.OrderBy{Sels: v.Sels, Child: child}, nil
	case algebra.GroupBy:
		child, err := e.walk(v.Child, path, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.GroupBy{Keys: v.Keys, Child: child}, nil
	default:
		return q, nil
	}
}

func (e *elaborator) walkSelect(v algebra.Select, path []string, tpe string, s seen) (algebra.Query, error) {
	om, ok := e.reg.ObjectMappingFor(tpe, path)
	if !ok {
		return nil, &MappingError{Path: path, Type: tpe, Msg: "no mapping registered for type"}
	}
	fm, ok := om.Field(v.Name)
	if !ok {
		return nil, &MappingError{Path: path, Type: tpe, Msg: "no field mapping for " + v.Name}
	}

	childPath := append(append([]string{}, path...), v.Name)

	obj, isObject := fm.(mapping.SqlObject)
	if !isObject {
		// Leaf-valued, cursor-computed, or attribute fields contribute no
		// further staging boundary; recurse only to cover any Filter/Group
		// shapes nested underneath (rare but legal).
		child, err := e.walk(v.Child, childPath, tpe, s)
		if err != nil {
			return nil, err
		}
		return algebra.Select{Name: v.Name, Alias: v.Alias, Child: child}, nil
	}

	childTpe := obj.TargetType
	inList := obj.List

	switch {
	case s.types[childTpe] || (s.sawList && inList):
		staged, err := e.stage(v, childPath, childTpe, om, tpe)
		if err != nil {
			return nil, err
		}
		return staged, nil
	case e.reg.IsInterface(childTpe) && !e.interfaceHasDiscriminator(childTpe):
		staged, err := e.stage(v, childPath, childTpe, om, e.schemaRoot)
		if err != nil {
			return nil, err
		}
		return staged, nil
	default:
		next := s.withType(childTpe).withList(inList)
		child, err := e.walk(v.Child, childPath, childTpe, next)
		if err != nil {
			return nil, err
		}
		if obj.Filter != nil {
			child = algebra.Filter{Pred: obj.Filter, Child: child}
		}
		return algebra.Select{Name: v.Name, Alias: v.Alias, Child: child}, nil
	}
}

func (e *elaborator) interfaceHasDiscriminator(tpe string) bool {
	im, ok := e.reg.InterfaceMapping(tpe)
	return ok && im.HasDiscriminator()
}

// stage wraps v.Child in a fresh Defer, elaborating the deferred body with
// a reset Seen (§4.F step 2/3, "elaborate child with a fresh Seen"). The
// staging predicate is built from the staged field's own Joins, resolving
// each join endpoint's column back to the field name that projects it on
// either side, so the second fetch can be keyed off whatever the first
// fetch actually read (not assumed to be the parent's own primary key).
func (e *elaborator) stage(v algebra.Select, childPath []string, childTpe string, parentMapping mapping.ObjectMapping, deferredParentType string) (algebra.Query, error) {
	body, err := e.walk(v.Child, childPath, childTpe, freshSeen())
	if err != nil {
		return nil, err
	}

	fm, ok := parentMapping.Field(v.Name)
	if !ok {
		return nil, &MappingError{Path: childPath, Type: parentMapping.Type, Msg: "no field mapping for " + v.Name}
	}
	obj, ok := fm.(mapping.SqlObject)
	if !ok || len(obj.Joins) == 0 {
		return nil, &MappingError{Path: childPath, Type: parentMapping.Type, Msg: "cannot stage " + v.Name + ": field declares no join to key the second fetch by"}
	}
	childOm, ok := e.reg.ObjectMappingFor(childTpe, childPath)
	if !ok {
		return nil, &MappingError{Path: childPath, Type: childTpe, Msg: "no mapping registered for type"}
	}

	type keyPair struct{ sourceField, targetField string }
	pairs := make([]keyPair, 0, len(obj.Joins))
	for _, j := range obj.Joins {
		sourceField, ok := fieldNameForColumn(parentMapping, j.Parent)
		if !ok {
			return nil, &MappingError{Path: childPath, Type: parentMapping.Type, Msg: "join column " + j.Parent.Table + "." + j.Parent.Column + " is not exposed as a field"}
		}
		targetField, ok := fieldNameForColumn(childOm, j.Child)
		if !ok {
			return nil, &MappingError{Path: childPath, Type: childTpe, Msg: "join column " + j.Child.Table + "." + j.Child.Column + " is not exposed as a field"}
		}
		pairs = append(pairs, keyPair{sourceField: sourceField, targetField: targetField})
	}

	join := algebra.StagingJoin(func(path []string, cv algebra.CursorValue) (algebra.Query, bool, error) {
		var pred algebra.Predicate
		for _, p := range pairs {
			val, ok, err := cv.PathValue([]string{p.sourceField})
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			eq := algebra.NewEql(algebra.Path{Hops: []string{p.targetField}}, algebra.Const{Value: val})
			if pred == nil {
				pred = eq
			} else {
				pred = algebra.And{Left: pred, Right: eq}
			}
		}
		return algebra.Context{Path: path, Child: algebra.Filter{Pred: pred, Child: body}}, true, nil
	})

	defer_ := algebra.Defer{Name: v.Name, StagingJoin: join, Child: body, ParentType: deferredParentType}
	return algebra.Wrap{Name: v.Name, Child: defer_}, nil
}

// fieldNameForColumn finds the field name on om that projects col, used to
// translate a join's raw column endpoints back into GraphQL field names for
// the staging predicate.
func fieldNameForColumn(om mapping.ObjectMapping, col mapping.ColumnRef) (string, bool) {
	for name, fm := range om.Fields {
		if c, ok := mapping.ColumnOf(fm); ok && c.Equal(col) {
			return name, true
		}
	}
	return "", false
}
