package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/llm"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeStrategy struct {
	values map[string]any
	err    error
	panics bool
}

func (f fakeStrategy) Name() string { return "fake" }

func (f fakeStrategy) Extract(ctx context.Context, transcript string) (*profile.Draft, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return profile.DraftFromMap(f.values, profile.SourceLocalRules), nil
}

type malformedProvider struct{ calls int }

func (m *malformedProvider) GenerateStructured(context.Context, string, string) (map[string]any, error) {
	m.calls++
	return nil, &llm.ServiceError{Provider: "fake", Malformed: true, Err: errors.New("Sure! Here you go")}
}

func (m *malformedProvider) Close() error { return nil }

func TestRun_Success(t *testing.T) {
	p := New(profile.Merger{}, quiet())
	res := p.Run(context.Background(), "transcript", nil, fakeStrategy{values: map[string]any{
		profile.FieldName:              "Maria Garcia",
		profile.FieldYearsOfExperience: "5",
	}})

	require.True(t, res.OK)
	require.NoError(t, res.Err())
	assert.Equal(t, "Maria Garcia", res.Profile.Name)
	require.NotNil(t, res.Profile.YearsOfExperience)
	assert.Equal(t, 5, *res.Profile.YearsOfExperience)
	assert.Equal(t, profile.SourceLocalRules, res.Validated.Source(profile.FieldName))
}

func TestRun_MalformedResponseIsExtractionFailure(t *testing.T) {
	prov := &malformedProvider{}
	remote := extraction.NewRemoteStrategy(prov, extraction.RemoteConfig{MaxRetries: 1, BaseBackoff: time.Millisecond}, quiet())
	existing := &profile.StudentProfile{Name: "Maria Garcia", Hobbies: []string{"reading"}}

	res := New(profile.Merger{}, quiet()).Run(context.Background(), "transcript", existing, remote)

	require.False(t, res.OK)
	assert.Nil(t, res.Profile)
	assert.Equal(t, KindExtraction, res.Failure.Kind)
	assert.Equal(t, extraction.KindMalformedResponse, res.Failure.ExtractionKind)
	assert.Equal(t, 2, prov.calls)
	assert.Equal(t, []string{"reading"}, existing.Hobbies)
}

func TestRun_InvalidEnglishLevel(t *testing.T) {
	existing := &profile.StudentProfile{Name: "Ana", EnglishLevel: profile.LevelBeginner}
	res := New(profile.Merger{}, quiet()).Run(context.Background(), "t", existing, fakeStrategy{values: map[string]any{
		profile.FieldEnglishLevel:      "Expert",
		profile.FieldYearsOfExperience: -1,
	}})

	require.False(t, res.OK)
	assert.Equal(t, KindValidation, res.Failure.Kind)
	require.Len(t, res.Failure.Defects, 2)
	assert.Nil(t, res.Profile)
	assert.Equal(t, profile.LevelBeginner, existing.EnglishLevel)
}

func TestRun_MergesListsWithExisting(t *testing.T) {
	existing := &profile.StudentProfile{Hobbies: []string{"reading"}}
	res := New(profile.Merger{}, quiet()).Run(context.Background(), "t", existing, fakeStrategy{values: map[string]any{
		profile.FieldHobbies: []string{"reading", "cycling"},
	}})

	require.True(t, res.OK)
	assert.Equal(t, []string{"reading", "cycling"}, res.Profile.Hobbies)
	assert.Equal(t, []string{"reading"}, existing.Hobbies)
}

func TestRun_StrictMergeConflict(t *testing.T) {
	existing := &profile.StudentProfile{JobTitle: "nurse"}
	res := New(profile.Merger{Policy: profile.PolicyStrict}, quiet()).Run(context.Background(), "t", existing,
		fakeStrategy{values: map[string]any{profile.FieldJobTitle: "doctor"}})

	require.False(t, res.OK)
	assert.Equal(t, KindMergeConflict, res.Failure.Kind)
}

func TestRun_EmptyTranscript(t *testing.T) {
	remote := extraction.NewRemoteStrategy(&malformedProvider{}, extraction.RemoteConfig{}, quiet())
	res := New(profile.Merger{}, quiet()).Run(context.Background(), "   ", nil, remote)

	require.False(t, res.OK)
	assert.Equal(t, extraction.KindEmptyTranscript, res.Failure.ExtractionKind)
}

func TestRun_NeverPanics(t *testing.T) {
	res := New(profile.Merger{}, quiet()).Run(context.Background(), "t", nil, fakeStrategy{panics: true})
	require.False(t, res.OK)
	assert.Equal(t, KindInternal, res.Failure.Kind)

	res = New(profile.Merger{}, quiet()).Run(context.Background(), "t", nil, nil)
	require.False(t, res.OK)
	assert.Equal(t, KindExtraction, res.Failure.Kind)
}

func TestRun_ConcurrentInvocations(t *testing.T) {
	p := New(profile.Merger{}, quiet())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			existing := &profile.StudentProfile{Sports: []string{"golf"}}
			res := p.Run(context.Background(), "t", existing, fakeStrategy{values: map[string]any{
				profile.FieldSports: []string{"tennis"},
			}})
			assert.True(t, res.OK)
			assert.Equal(t, []string{"golf", "tennis"}, res.Profile.Sports)
		}()
	}
	wg.Wait()
}
