package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/profile"
	mongorepo "github.com/yoockh/eslsheets/internal/repositories/mongo"
	"github.com/yoockh/eslsheets/internal/utils"
)

type fakeStudents struct {
	mu      sync.Mutex
	rows    map[string]models.StudentProfile
	updates int
}

func newFakeStudents(rows ...models.StudentProfile) *fakeStudents {
	f := &fakeStudents{rows: map[string]models.StudentProfile{}}
	for _, r := range rows {
		if r.Version == 0 {
			r.Version = 1
		}
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeStudents) Create(_ context.Context, s *models.StudentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.Version = 1
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeStudents) GetByID(_ context.Context, id string) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

func (f *fakeStudents) List(_ context.Context, _, _ int) ([]models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.StudentProfile, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStudents) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStudents) UpdateLocked(_ context.Context, id string, fn func(row *models.StudentProfile) error) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	if err := fn(&r); err != nil {
		return nil, err
	}
	r.Version++
	f.updates++
	f.rows[id] = r
	return &r, nil
}

type fakeTranscripts struct {
	rows map[string]models.Transcript
}

func newFakeTranscripts(rows ...models.Transcript) *fakeTranscripts {
	f := &fakeTranscripts{rows: map[string]models.Transcript{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeTranscripts) Insert(_ context.Context, t *models.Transcript) error {
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTranscripts) ListByStudent(_ context.Context, studentID string, _ int) ([]models.Transcript, error) {
	var out []models.Transcript
	for _, r := range f.rows {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTranscripts) GetByID(_ context.Context, id string) (*models.Transcript, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs map[string]models.ExtractionRun
}

func newFakeRuns() *fakeRuns { return &fakeRuns{runs: map[string]models.ExtractionRun{}} }

func (f *fakeRuns) Create(_ context.Context, r *models.ExtractionRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[r.RunID] = *r
	return nil
}

func (f *fakeRuns) GetByRunID(_ context.Context, runID string) (*models.ExtractionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRuns) ListByStudent(_ context.Context, studentID string, _ int64) ([]models.ExtractionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExtractionRun
	for _, r := range f.runs {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuns) MarkRunning(_ context.Context, runID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.runs[runID]
	r.Status = models.RunRunning
	r.StartedAt = &at
	f.runs[runID] = r
	return nil
}

func (f *fakeRuns) Finish(_ context.Context, runID string, u mongorepo.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.runs[runID]
	r.Status = u.Status
	r.FieldsExtracted = u.FieldsExtracted
	r.Failure = u.Failure
	r.ProfileVersion = u.ProfileVersion
	r.FinishedAt = &u.FinishedAt
	f.runs[runID] = r
	return nil
}

type fakeQueue struct{ ids []string }

func (q *fakeQueue) Enqueue(_ context.Context, runID string) error {
	q.ids = append(q.ids, runID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.RunStatusEvent
}

func (n *fakeNotifier) Publish(_ context.Context, ev models.RunStatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *fakeNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Status)
	}
	return out
}

type memCache struct {
	items map[string][]byte
}

func newMemCache() *memCache { return &memCache{items: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.items[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// stubStrategy returns a fixed draft or error.
type stubStrategy struct {
	name  string
	draft map[string]any
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ string) (*profile.Draft, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return profile.DraftFromMap(s.draft, profile.SourceLocalRules), nil
}
