package reasoner

import "github.com/pkg/errors"

// RoleID identifies a role within a RoleMaster's hierarchy. An inverse
// role is represented as the same underlying role with a negated id, so
// R and R⁻ share one Role record accessible from either sign.
type RoleID int32

// InverseRoleID flips the direction of id.
func InverseRoleID(id RoleID) RoleID { return -id }

// IsInverse reports whether id refers to the inverse direction of its role.
func (id RoleID) IsInverse() bool { return id < 0 }

func (id RoleID) index() int32 {
	if id < 0 {
		return int32(-id)
	}
	return int32(id)
}

// Role records the static properties of a role (object- or data-valued):
// its flags, its place in the role hierarchy, its composition chain (for
// role inclusions R1∘...∘Rn ⊑ S), and its domain/range.
type Role struct {
	Name string
	ID   RoleID // positive id; InverseRoleID(ID) is this role's inverse

	Functional  bool
	Transitive  bool
	Reflexive   bool
	Irreflexive bool
	Symmetric   bool
	DataRole    bool
	Top         bool // universal role sentinel
	Bottom      bool // empty role sentinel

	// simple caches the computed invariant: a role is simple iff it has no
	// transitive sub-role and appears in no composition. Computed once the
	// hierarchy is closed, by RoleMaster.computeSimple.
	simple bool

	parents   []RoleID // direct super-roles from RoleInclusion axioms
	ancestors []RoleID // transitive closure of parents, filled by closeHierarchy

	// compositions holds every composition chain R1∘...∘Rn this role is
	// the right-hand side of (role inclusion R1∘...∘Rn ⊑ this).
	compositions [][]RoleID

	Domain BP
	Range  BP
}

// RoleMaster registers object and data roles in two separate hierarchies
// and answers hierarchy queries (sub-role closure, simplicity, cycle
// detection) once the hierarchy has been closed by CloseHierarchy.
type RoleMaster struct {
	object map[RoleID]*Role
	data   map[RoleID]*Role
	byName map[string]RoleID
	nextID RoleID
	closed bool

	// universalObject / emptyObject are the top/bottom role sentinels used
	// by domain/range internalisation when no explicit role is named.
	universalObject RoleID
	emptyObject     RoleID
}

// NewRoleMaster creates an empty role hierarchy, pre-registering the
// universal and empty object-role sentinels.
func NewRoleMaster() *RoleMaster {
	rm := &RoleMaster{
		object: make(map[RoleID]*Role),
		data:   make(map[RoleID]*Role),
		byName: make(map[string]RoleID),
	}
	rm.universalObject = rm.register("__TopObjectRole__", false)
	rm.object[rm.universalObject].Top = true
	rm.emptyObject = rm.register("__BottomObjectRole__", false)
	rm.object[rm.emptyObject].Bottom = true
	return rm
}

func (rm *RoleMaster) register(name string, data bool) RoleID {
	rm.nextID++
	id := rm.nextID
	r := &Role{Name: name, ID: id, DataRole: data, Domain: BPTop, Range: BPTop}
	if data {
		rm.data[id] = r
	} else {
		rm.object[id] = r
	}
	rm.byName[name] = id
	return id
}

// Declare registers name as an object or data role, returning its id.
// Calling Declare twice with the same name returns the existing id.
func (rm *RoleMaster) Declare(name string, data bool) RoleID {
	if id, ok := rm.byName[name]; ok {
		return id
	}
	return rm.register(name, data)
}

// DeclareInverse registers name as the inverse direction of role, sharing
// role's Role record rather than allocating a new one: name and role's own
// name become the two names by which the same underlying role pair is
// reachable.
func (rm *RoleMaster) DeclareInverse(name string, role RoleID) RoleID {
	if id, ok := rm.byName[name]; ok {
		return id
	}
	inv := InverseRoleID(role)
	rm.byName[name] = inv
	return inv
}

// Lookup returns the RoleID previously Declared (or DeclareInverse'd)
// under name.
func (rm *RoleMaster) Lookup(name string) (RoleID, bool) {
	id, ok := rm.byName[name]
	return id, ok
}

func (rm *RoleMaster) get(id RoleID) (*Role, bool) {
	idx := RoleID(id.index())
	if r, ok := rm.object[idx]; ok {
		return r, true
	}
	if r, ok := rm.data[idx]; ok {
		return r, true
	}
	return nil, false
}

// Get returns the Role record for id, ignoring direction.
func (rm *RoleMaster) Get(id RoleID) (*Role, bool) { return rm.get(id) }

// SetFunctional marks id as a functional role.
func (rm *RoleMaster) SetFunctional(id RoleID) {
	if r, ok := rm.get(id); ok {
		r.Functional = true
	}
}

// SetTransitive marks id as a transitive role.
func (rm *RoleMaster) SetTransitive(id RoleID) {
	if r, ok := rm.get(id); ok {
		r.Transitive = true
	}
}

// SetReflexive marks id as reflexive.
func (rm *RoleMaster) SetReflexive(id RoleID) {
	if r, ok := rm.get(id); ok {
		r.Reflexive = true
	}
}

// SetIrreflexive marks id as irreflexive.
func (rm *RoleMaster) SetIrreflexive(id RoleID) {
	if r, ok := rm.get(id); ok {
		r.Irreflexive = true
	}
}

// SetSymmetric marks id (and implicitly its inverse) as symmetric.
func (rm *RoleMaster) SetSymmetric(id RoleID) {
	if r, ok := rm.get(id); ok {
		r.Symmetric = true
	}
}

// SetDomain / SetRange record a role's domain or range concept.
func (rm *RoleMaster) SetDomain(id RoleID, c BP) {
	if r, ok := rm.get(id); ok {
		r.Domain = c
	}
}

func (rm *RoleMaster) SetRange(id RoleID, c BP) {
	if r, ok := rm.get(id); ok {
		r.Range = c
	}
}

// AddSubRole records sub ⊑ super (a simple role inclusion, not a
// composition).
func (rm *RoleMaster) AddSubRole(sub, super RoleID) {
	if r, ok := rm.get(sub); ok {
		r.parents = append(r.parents, super)
	}
}

// AddComposition records the role inclusion chain[0]∘...∘chain[n-1] ⊑ super.
func (rm *RoleMaster) AddComposition(chain []RoleID, super RoleID) {
	if r, ok := rm.get(super); ok {
		cp := append([]RoleID(nil), chain...)
		r.compositions = append(r.compositions, cp)
	}
}

// ErrRoleInclusionCycle is returned by CloseHierarchy when the
// role-inclusion graph contains a cycle among distinct roles. This is a
// fatal, unrecoverable CycleInRoleInclusion-class condition.
var ErrRoleInclusionCycle = errors.New("cycle in role inclusion")

// CloseHierarchy computes the transitive closure of the sub-role relation
// for every registered role, detects role-inclusion cycles, and computes
// the `simple` invariant for every role. It must be called once, after
// all RoleInclusion/RoleComposition axioms have been registered, before
// Simple or Ancestors are queried.
func (rm *RoleMaster) CloseHierarchy() error {
	all := rm.allRoles()
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[RoleID]int, len(all))
	var visit func(id RoleID) error
	visit = func(id RoleID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return errors.Wrapf(ErrRoleInclusionCycle, "role %q", rm.nameOf(id))
		}
		color[id] = gray
		r, _ := rm.get(id)
		seen := make(map[RoleID]bool)
		var ancestors []RoleID
		for _, p := range r.parents {
			if err := visit(p); err != nil {
				return err
			}
			pr, _ := rm.get(p)
			for _, a := range append([]RoleID{p}, pr.ancestors...) {
				if !seen[a] {
					seen[a] = true
					ancestors = append(ancestors, a)
				}
			}
		}
		r.ancestors = ancestors
		color[id] = black
		return nil
	}
	for _, id := range all {
		if err := visit(id); err != nil {
			return err
		}
	}
	rm.computeSimple(all)
	rm.closed = true
	return nil
}

func (rm *RoleMaster) nameOf(id RoleID) string {
	if r, ok := rm.get(id); ok {
		return r.Name
	}
	return "?"
}

func (rm *RoleMaster) allRoles() []RoleID {
	out := make([]RoleID, 0, len(rm.object)+len(rm.data))
	for id := range rm.object {
		out = append(out, id)
	}
	for id := range rm.data {
		out = append(out, id)
	}
	return out
}

// computeSimple derives, for every role, whether it is simple: no
// transitive sub-role, and it appears in no composition's right-hand
// side.
func (rm *RoleMaster) computeSimple(all []RoleID) {
	nonSimple := make(map[RoleID]bool)
	for _, id := range all {
		r, _ := rm.get(id)
		if len(r.compositions) > 0 {
			nonSimple[id] = true
		}
	}
	for _, id := range all {
		r, _ := rm.get(id)
		if r.Transitive {
			nonSimple[id] = true
			for _, a := range r.ancestors {
				nonSimple[a] = true
			}
		}
	}
	for _, id := range all {
		r, _ := rm.get(id)
		r.simple = !nonSimple[id]
	}
}

// descendantsOf returns every role whose ancestor set contains id.
func (rm *RoleMaster) descendantsOf(id RoleID, all []RoleID) []RoleID {
	var out []RoleID
	for _, other := range all {
		r, _ := rm.get(other)
		for _, a := range r.ancestors {
			if a == id {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// Simple reports whether id is simple: only simple roles may appear in
// cardinality restrictions.
func (rm *RoleMaster) Simple(id RoleID) bool {
	if r, ok := rm.get(id); ok {
		return r.simple
	}
	return true
}

// TransitiveSubRoles returns every transitive sub-role of role (including
// role itself if role is transitive), used by DAG.Forall to internalise
// ∀S.C for every transitive S ⊑ role.
func (rm *RoleMaster) TransitiveSubRoles(role RoleID) []RoleID {
	var out []RoleID
	for id, r := range rm.object {
		if !r.Transitive {
			continue
		}
		if id == role || rm.isAncestor(role, id) {
			out = append(out, id)
		}
	}
	for id, r := range rm.data {
		if !r.Transitive {
			continue
		}
		if id == role || rm.isAncestor(role, id) {
			out = append(out, id)
		}
	}
	return out
}

func (rm *RoleMaster) isAncestor(ancestor, of RoleID) bool {
	r, ok := rm.get(of)
	if !ok {
		return false
	}
	for _, a := range r.ancestors {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Ancestors returns every super-role of id (after CloseHierarchy).
func (rm *RoleMaster) Ancestors(id RoleID) []RoleID {
	if r, ok := rm.get(id); ok {
		return r.ancestors
	}
	return nil
}

// UniversalRole and EmptyRole return the sentinel object-role ids.
func (rm *RoleMaster) UniversalRole() RoleID { return rm.universalObject }
func (rm *RoleMaster) EmptyRole() RoleID     { return rm.emptyObject }

// ReflexiveRoles returns every role (object or data) declared reflexive,
// used by Tableau.newNode to insert a self-edge on every fresh node for
// each globally reflexive role.
func (rm *RoleMaster) ReflexiveRoles() []RoleID {
	var out []RoleID
	for id, r := range rm.object {
		if r.Reflexive {
			out = append(out, id)
		}
	}
	for id, r := range rm.data {
		if r.Reflexive {
			out = append(out, id)
		}
	}
	return out
}
