package mapping

import "github.com/eddieafk/mapperql/mapping/typegraph"

// Registry is the lookup API consulted by the Fragment Builder, Planner,
// Staging Elaborator, and Row-table Cursor (§4.C). Resolution consults
// PrefixedMappings (path-scoped overrides) before falling back to the
// unprefixed mapping for a type. Resolution is deterministic: the
// most-specific matching path prefix wins; ties are broken by declaration
// order (the order ObjectMappings were registered in).
type Registry struct {
	// byType holds, for each GraphQL type name, the unprefixed mapping plus
	// every prefixed override, in declaration order.
	byType      map[string][]ObjectMapping
	interfaces  map[string]SqlInterfaceMapping
	leaves      map[string]LeafMapping
	sqlLeaves   map[string]SqlLeafMapping
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:     make(map[string][]ObjectMapping),
		interfaces: make(map[string]SqlInterfaceMapping),
		leaves:     make(map[string]LeafMapping),
		sqlLeaves:  make(map[string]SqlLeafMapping),
	}
}

// Register adds an ObjectMapping (prefixed or not) in declaration order.
func (r *Registry) Register(m ObjectMapping) {
	r.byType[m.Type] = append(r.byType[m.Type], m)
}

// RegisterInterface adds an interface mapping.
func (r *Registry) RegisterInterface(m SqlInterfaceMapping) {
	r.interfaces[m.Type] = m
}

// RegisterLeaf adds a scalar/enum leaf mapping.
func (r *Registry) RegisterLeaf(m LeafMapping) {
	r.leaves[m.Type] = m
}

// RegisterSqlLeaf adds a scalar/enum leaf mapping with its SQL codec.
func (r *Registry) RegisterSqlLeaf(m SqlLeafMapping) {
	r.sqlLeaves[m.Type] = m
}

// ObjectMappingFor returns the applicable ObjectMapping for a type at a
// given path, preferring the longest declared prefix that is a prefix of
// path, falling back to the unprefixed mapping. ok is false if the type is
// not registered at all.
func (r *Registry) ObjectMappingFor(tpe string, path []string) (ObjectMapping, bool) {
	candidates, ok := r.byType[tpe]
	if !ok || len(candidates) == 0 {
		return ObjectMapping{}, false
	}

	bestIdx := -1
	bestLen := -1
	for i, c := range candidates {
		if len(c.Path) == 0 {
			continue
		}
		if !isPrefix(c.Path, path) {
			continue
		}
		if len(c.Path) > bestLen {
			bestLen = len(c.Path)
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		return candidates[bestIdx], true
	}

	// Fall back to the first unprefixed mapping, in declaration order.
	for _, c := range candidates {
		if len(c.Path) == 0 {
			return c, true
		}
	}
	return ObjectMapping{}, false
}

// FieldMappingFor returns the applicable FieldMapping for name, within the
// ObjectMapping resolved for tpe at path.
func (r *Registry) FieldMappingFor(path []string, tpe, name string) (FieldMapping, bool) {
	om, ok := r.ObjectMappingFor(tpe, path)
	if !ok {
		return nil, false
	}
	return om.Field(name)
}

// InterfaceMapping returns the interface mapping for tpe, if any.
func (r *Registry) InterfaceMapping(tpe string) (SqlInterfaceMapping, bool) {
	m, ok := r.interfaces[tpe]
	return m, ok
}

// IsInterface reports whether tpe is registered as an interface mapping.
func (r *Registry) IsInterface(tpe string) bool {
	_, ok := r.interfaces[tpe]
	return ok
}

// BuildTypeGraph walks every registered ObjectMapping's SqlObject fields and
// produces the relationship graph of mapped types (mapping/typegraph);
// planner.Elaborate builds it on every call. Every distinct
// (ownerType, targetType) pair contributes one edge; a pair seen more than
// once across mappings or fields is only added once, since the underlying
// graph library rejects a duplicate edge.
func (r *Registry) BuildTypeGraph() (*typegraph.Graph, error) {
	g := typegraph.New()
	for tpe := range r.byType {
		g.AddType(tpe)
	}

	seen := map[string]bool{}
	for tpe, mappings := range r.byType {
		for _, om := range mappings {
			for _, fm := range om.Fields {
				obj, ok := fm.(SqlObject)
				if !ok {
					continue
				}
				g.AddType(obj.TargetType)
				key := tpe + "\x00" + obj.TargetType
				if seen[key] {
					continue
				}
				seen[key] = true
				if err := g.AddRelation(tpe, obj.TargetType); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func isPrefix(prefix, path []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, p := range prefix {
		if path[i] != p {
			return false
		}
	}
	return true
}
