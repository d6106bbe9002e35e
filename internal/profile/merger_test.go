package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValidate(t *testing.T, m map[string]any, src Source) *Validated {
	t.Helper()
	v, defects := Validate(DraftFromMap(m, src))
	require.Empty(t, defects)
	return v
}

func TestMerge_NoExistingTakesIncoming(t *testing.T) {
	in := mustValidate(t, map[string]any{FieldName: "Ana", FieldHobbies: []string{"chess"}}, SourceRemoteModel)

	got := Merge(nil, in)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, []string{"chess"}, got.Hobbies)
	assert.Equal(t, SourceRemoteModel, got.SourceOf(FieldName))
}

func TestMerge_ListUnionPreservesOrder(t *testing.T) {
	existing := &StudentProfile{Hobbies: []string{"reading"}}
	in := mustValidate(t, map[string]any{FieldHobbies: []string{"reading", "cycling"}}, SourceLocalRules)

	got := Merge(existing, in)
	assert.Equal(t, []string{"reading", "cycling"}, got.Hobbies)
	assert.Equal(t, []string{"reading"}, existing.Hobbies)
}

func TestMerge_AbsentIncomingKeepsScalar(t *testing.T) {
	years := 7
	existing := &StudentProfile{Name: "Ana", CurrentCity: "Lisbon", YearsOfExperience: &years}
	in := mustValidate(t, map[string]any{FieldHometown: "Porto"}, SourceRemoteModel)

	got := Merge(existing, in)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "Lisbon", got.CurrentCity)
	require.NotNil(t, got.YearsOfExperience)
	assert.Equal(t, 7, *got.YearsOfExperience)
	assert.Equal(t, "Porto", got.Hometown)
}

func TestMerge_PresentIncomingOverwritesScalar(t *testing.T) {
	existing := &StudentProfile{
		CurrentCity: "Lisbon",
		Provenance:  map[string]Source{FieldCurrentCity: SourceLocalRules},
	}
	in := mustValidate(t, map[string]any{FieldCurrentCity: "Boston"}, SourceLocalRules)

	got := Merge(existing, in)
	assert.Equal(t, "Boston", got.CurrentCity)
}

func TestMerge_ManualValuesProtected(t *testing.T) {
	existing := &StudentProfile{
		Name:       "Ana Silva",
		Provenance: map[string]Source{FieldName: SourceManual},
	}

	got := Merge(existing, mustValidate(t, map[string]any{FieldName: "Anna"}, SourceRemoteModel))
	assert.Equal(t, "Ana Silva", got.Name)

	got = Merge(existing, mustValidate(t, map[string]any{FieldName: "Ana S."}, SourceManual))
	assert.Equal(t, "Ana S.", got.Name)
	assert.Equal(t, SourceManual, got.SourceOf(FieldName))
}

func TestMerger_Policies(t *testing.T) {
	existing := &StudentProfile{
		JobTitle:   "nurse",
		Provenance: map[string]Source{FieldJobTitle: SourceRemoteModel},
	}
	in := mustValidate(t, map[string]any{FieldJobTitle: "doctor"}, SourceLocalRules)

	got, err := Merger{Policy: PolicyRanked}.Merge(existing, in)
	require.NoError(t, err)
	assert.Equal(t, "nurse", got.JobTitle)

	got, err = Merger{Policy: PolicyOverwrite}.Merge(existing, in)
	require.NoError(t, err)
	assert.Equal(t, "doctor", got.JobTitle)

	got, err = Merger{Policy: PolicyStrict}.Merge(existing, in)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{FieldJobTitle}, conflict.Fields)
	assert.Equal(t, "nurse", got.JobTitle)
}

func TestMerger_StrictAllowsEqualAndNewValues(t *testing.T) {
	existing := &StudentProfile{JobTitle: "nurse"}
	in := mustValidate(t, map[string]any{FieldJobTitle: "nurse", FieldIndustry: "health"}, SourceRemoteModel)

	got, err := Merger{Policy: PolicyStrict}.Merge(existing, in)
	require.NoError(t, err)
	assert.Equal(t, "health", got.Industry)
}

func TestMerge_ListUnionIsAssociative(t *testing.T) {
	a := mustValidate(t, map[string]any{FieldSports: []string{"tennis", "golf"}}, SourceManual)
	b := mustValidate(t, map[string]any{FieldSports: []string{"golf", "rugby"}}, SourceLocalRules)
	c := mustValidate(t, map[string]any{FieldSports: []string{"chess", "tennis"}}, SourceRemoteModel)

	pa := a.Profile()
	ab := Merge(&pa, b)
	left := Merge(&ab, c)

	pb := b.Profile()
	bc := Merge(&pb, c)
	bcValidated, defects := Validate(bc.Draft(SourceUnknown))
	require.Empty(t, defects)
	right := Merge(&pa, bcValidated)

	assert.Equal(t, left.Sports, right.Sports)
	assert.Equal(t, []string{"tennis", "golf", "rugby", "chess"}, left.Sports)
}

func TestMerge_AbsentVersusAbsentIsCommutative(t *testing.T) {
	a := StudentProfile{Name: "Ana"}
	b := StudentProfile{CurrentCity: "Boston"}
	va, _ := Validate(a.Draft(SourceManual))
	vb, _ := Validate(b.Draft(SourceManual))

	ab := Merge(&a, vb)
	ba := Merge(&b, va)
	assert.Empty(t, ab.Hometown)
	assert.Empty(t, ba.Hometown)
	assert.Equal(t, ab.Name, ba.Name)
	assert.Equal(t, ab.CurrentCity, ba.CurrentCity)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Ranked")
	require.NoError(t, err)
	assert.Equal(t, PolicyRanked, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyProtectManual, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}
