package reasoner

// NamedEntry is the common shape shared by every named thing the façade
// exposes to a caller: a concept, a role, or an individual, identified by
// its BP (or, for a role, its RoleID folded into the same int32 space) and
// its declared name. RoleHierarchyNode embeds a NamedEntry, and
// TaxonomyVertex.Entries presents a vertex's synonyms as NamedEntry
// records.
type NamedEntry struct {
	ID   BP
	Name string
}

// Entries returns v's synonym set as NamedEntry records, resolving each
// BP's name against dag.
func (v *TaxonomyVertex) Entries(dag *DAG) []NamedEntry {
	out := make([]NamedEntry, 0, len(v.Synonyms))
	for _, bp := range v.Synonyms {
		out = append(out, NamedEntry{ID: bp, Name: dag.Get(bp).Name})
	}
	return out
}

// RoleHierarchyNode is one position in the materialised role hierarchy: a
// single named role plus links to its immediate parents and children in
// the closed sub-role order RoleMaster maintains. Unlike TaxonomyVertex,
// a role never merges into a synonym group here: CloseHierarchy reports
// mutual sub-roling between distinct roles as a role-inclusion cycle.
type RoleHierarchyNode struct {
	NamedEntry
	Role     RoleID
	Parents  []*RoleHierarchyNode
	Children []*RoleHierarchyNode
}

// RoleHierarchy holds the materialised role tree built by
// BuildRoleHierarchy, keyed by RoleID for navigation.
type RoleHierarchy struct {
	byRole map[RoleID]*RoleHierarchyNode
}

// NodeOf returns the hierarchy node for role, if it was built.
func (rh *RoleHierarchy) NodeOf(role RoleID) (*RoleHierarchyNode, bool) {
	n, ok := rh.byRole[role]
	return n, ok
}

// BuildRoleHierarchy materialises every role rm knows about as a
// RoleHierarchyNode tree mirroring rm's closed ancestor relation, the same
// navigable shape Taxonomy offers over concepts via Parents/Children.
// CloseHierarchy must already have been called on rm.
func BuildRoleHierarchy(rm *RoleMaster) *RoleHierarchy {
	rh := &RoleHierarchy{byRole: make(map[RoleID]*RoleHierarchyNode)}
	all := rm.allRoles()
	for _, id := range all {
		r, ok := rm.get(id)
		if !ok {
			continue
		}
		rh.byRole[id] = &RoleHierarchyNode{
			NamedEntry: NamedEntry{ID: BP(id), Name: r.Name},
			Role:       id,
		}
	}
	for _, id := range all {
		node := rh.byRole[id]
		for _, anc := range rm.Ancestors(id) {
			if anc == id {
				continue
			}
			parent, ok := rh.byRole[anc]
			if !ok {
				continue
			}
			immediate := true
			for _, other := range rm.Ancestors(id) {
				if other == anc || other == id {
					continue
				}
				if rm.isAncestor(anc, other) {
					immediate = false
					break
				}
			}
			if !immediate {
				continue
			}
			node.Parents = append(node.Parents, parent)
			parent.Children = append(parent.Children, node)
		}
	}
	return rh
}
