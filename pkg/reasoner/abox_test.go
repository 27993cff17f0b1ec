package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestABox(t *testing.T) (*ABox, *DAG, *RoleMaster) {
	t.Helper()
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	return NewABox(dag), dag, rm
}

func TestABoxIndividualCreatesOnFirstUseAndReusesAfter(t *testing.T) {
	ab, _, _ := newTestABox(t)
	a1 := ab.Individual("alice")
	a2 := ab.Individual("alice")
	b := ab.Individual("bob")

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.ElementsMatch(t, []BP{a1, b}, ab.Individuals())
}

func TestABoxAssertClassAndAssertedClasses(t *testing.T) {
	ab, dag, _ := newTestABox(t)
	alice := ab.Individual("alice")
	human := dag.AddConcept("Human", PConcept)

	ab.AssertClass(alice, human)

	assert.Contains(t, ab.AssertedClasses(alice), human)
}

func TestABoxAssertedClassesFollowsSameAsUnion(t *testing.T) {
	ab, dag, _ := newTestABox(t)
	alice := ab.Individual("alice")
	alicia := ab.Individual("alicia")
	human := dag.AddConcept("Human", PConcept)

	ab.AssertClass(alice, human)
	ab.SameIndividuals(alice, alicia)

	assert.Contains(t, ab.AssertedClasses(alicia), human, "a class asserted on alice is visible from alicia once they're unioned same-as")
}

func TestABoxAssertRoleIsIdempotentAndQueryableBothWays(t *testing.T) {
	ab, _, rm := newTestABox(t)
	role := rm.Declare("hasChild", false)
	alice := ab.Individual("alice")
	bob := ab.Individual("bob")

	ab.AssertRole(role, alice, bob)
	ab.AssertRole(role, alice, bob)

	assert.True(t, ab.HasRole(role, alice, bob))
	assert.False(t, ab.HasRole(role, bob, alice))
	assert.Equal(t, []BP{bob}, ab.RoleFillers(alice, role))
	assert.Equal(t, []BP{alice}, ab.RoleFillersOf(bob, role))
	assert.Equal(t, [][2]BP{{alice, bob}}, ab.RelatedIndividuals(role))
}

func TestABoxRoleFillersFollowSameAsUnion(t *testing.T) {
	ab, _, rm := newTestABox(t)
	role := rm.Declare("hasChild", false)
	alice := ab.Individual("alice")
	alicia := ab.Individual("alicia")
	bob := ab.Individual("bob")

	ab.AssertRole(role, alice, bob)
	ab.SameIndividuals(alice, alicia)

	assert.Contains(t, ab.RoleFillers(alicia, role), bob)
}

func TestABoxSameIndividualsIsTransitive(t *testing.T) {
	ab, _, _ := newTestABox(t)
	a := ab.Individual("a")
	b := ab.Individual("b")
	c := ab.Individual("c")

	ab.SameIndividuals(a, b)
	ab.SameIndividuals(b, c)

	assert.True(t, ab.IsSameIndividual(a, c))
}

func TestABoxAssertDifferentIsSymmetric(t *testing.T) {
	ab, _, _ := newTestABox(t)
	a := ab.Individual("a")
	b := ab.Individual("b")

	ab.AssertDifferent(a, b)

	assert.True(t, ab.IsDifferent(a, b))
	assert.True(t, ab.IsDifferent(b, a))
}

func TestABoxConsistentSameDifferentDetectsContradiction(t *testing.T) {
	ab, _, _ := newTestABox(t)
	a := ab.Individual("a")
	b := ab.Individual("b")

	ab.AssertDifferent(a, b)
	require.True(t, ab.ConsistentSameDifferent())

	ab.SameIndividuals(a, b)
	assert.False(t, ab.ConsistentSameDifferent(), "unioning two individuals previously asserted different is a contradiction")
}

func TestABoxConsistentSameDifferentTrueWhenNoAssertionsConflict(t *testing.T) {
	ab, _, _ := newTestABox(t)
	a := ab.Individual("a")
	b := ab.Individual("b")
	c := ab.Individual("c")

	ab.AssertDifferent(a, b)
	ab.SameIndividuals(a, c)

	assert.True(t, ab.ConsistentSameDifferent())
}
