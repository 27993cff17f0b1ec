package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMasterDeclareIsIdempotent(t *testing.T) {
	rm := NewRoleMaster()
	a := rm.Declare("hasChild", false)
	b := rm.Declare("hasChild", false)
	assert.Equal(t, a, b)

	c := rm.Declare("hasChild", true)
	assert.Equal(t, a, c, "redeclaring under the same name ignores the data flag")
}

func TestRoleMasterDeclareInverseSharesRecord(t *testing.T) {
	rm := NewRoleMaster()
	hasChild := rm.Declare("hasChild", false)
	hasParent := rm.DeclareInverse("hasParent", hasChild)

	assert.Equal(t, InverseRoleID(hasChild), hasParent)

	got, ok := rm.Lookup("hasParent")
	require.True(t, ok)
	assert.Equal(t, hasParent, got)

	r1, ok1 := rm.Get(hasChild)
	r2, ok2 := rm.Get(hasParent)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Same(t, r1, r2, "inverse direction shares the underlying Role record")
}

func TestRoleMasterDeclareInverseIdempotent(t *testing.T) {
	rm := NewRoleMaster()
	hasChild := rm.Declare("hasChild", false)
	first := rm.DeclareInverse("hasParent", hasChild)
	second := rm.DeclareInverse("hasParent", hasChild)
	assert.Equal(t, first, second)
}

func TestRoleMasterLookupMissing(t *testing.T) {
	rm := NewRoleMaster()
	_, ok := rm.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRoleMasterFlags(t *testing.T) {
	rm := NewRoleMaster()
	id := rm.Declare("hasChild", false)
	rm.SetFunctional(id)
	rm.SetTransitive(id)
	rm.SetReflexive(id)
	rm.SetIrreflexive(id)
	rm.SetSymmetric(id)

	r, ok := rm.Get(id)
	require.True(t, ok)
	assert.True(t, r.Functional)
	assert.True(t, r.Transitive)
	assert.True(t, r.Reflexive)
	assert.True(t, r.Irreflexive)
	assert.True(t, r.Symmetric)
}

func TestRoleMasterDomainAndRange(t *testing.T) {
	rm := NewRoleMaster()
	id := rm.Declare("hasChild", false)
	rm.SetDomain(id, BP(100))
	rm.SetRange(id, BP(200))

	r, ok := rm.Get(id)
	require.True(t, ok)
	assert.Equal(t, BP(100), r.Domain)
	assert.Equal(t, BP(200), r.Range)
}

func TestRoleMasterCloseHierarchyComputesAncestors(t *testing.T) {
	rm := NewRoleMaster()
	grand := rm.Declare("grandparentOf", false)
	parent := rm.Declare("parentOf", false)
	rm.AddSubRole(parent, grand)

	require.NoError(t, rm.CloseHierarchy())
	assert.Contains(t, rm.Ancestors(parent), grand)
}

func TestRoleMasterCloseHierarchyDetectsCycle(t *testing.T) {
	rm := NewRoleMaster()
	a := rm.Declare("a", false)
	b := rm.Declare("b", false)
	rm.AddSubRole(a, b)
	rm.AddSubRole(b, a)

	err := rm.CloseHierarchy()
	require.Error(t, err)
}

func TestRoleMasterSimpleRoles(t *testing.T) {
	rm := NewRoleMaster()
	simple := rm.Declare("simple", false)
	trans := rm.Declare("transitiveOne", false)
	rm.SetTransitive(trans)

	require.NoError(t, rm.CloseHierarchy())
	assert.True(t, rm.Simple(simple))
	assert.False(t, rm.Simple(trans))
}

func TestRoleMasterSimpleViaComposition(t *testing.T) {
	rm := NewRoleMaster()
	r1 := rm.Declare("r1", false)
	r2 := rm.Declare("r2", false)
	super := rm.Declare("super", false)
	rm.AddComposition([]RoleID{r1, r2}, super)

	require.NoError(t, rm.CloseHierarchy())
	assert.False(t, rm.Simple(super))
}

func TestRoleMasterTransitiveSubRoles(t *testing.T) {
	rm := NewRoleMaster()
	ancestorOf := rm.Declare("ancestorOf", false)
	parentOf := rm.Declare("parentOf", false)
	rm.SetTransitive(parentOf)
	rm.AddSubRole(parentOf, ancestorOf)

	require.NoError(t, rm.CloseHierarchy())
	subs := rm.TransitiveSubRoles(ancestorOf)
	assert.Contains(t, subs, parentOf)
}

func TestRoleMasterReflexiveRoles(t *testing.T) {
	rm := NewRoleMaster()
	id := rm.Declare("knows", false)
	rm.SetReflexive(id)

	assert.Contains(t, rm.ReflexiveRoles(), id)
}

func TestRoleMasterUniversalAndEmptyRoles(t *testing.T) {
	rm := NewRoleMaster()
	assert.NotEqual(t, RoleID(0), rm.UniversalRole())
	assert.NotEqual(t, RoleID(0), rm.EmptyRole())
	assert.NotEqual(t, rm.UniversalRole(), rm.EmptyRole())
}

func TestInverseRoleIDAndIsInverse(t *testing.T) {
	rm := NewRoleMaster()
	id := rm.Declare("hasChild", false)
	inv := InverseRoleID(id)
	assert.False(t, id.IsInverse())
	assert.True(t, inv.IsInverse())
	assert.Equal(t, id, InverseRoleID(inv))
}
