package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/cache"
	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/outbox"
	"fitweek/planner/internal/repository"
)

// --- Fakes shared by the service tests ---

type fakePlanRepo struct {
	stored     map[string]*domain.WeeklyPlan
	createErr  error
	replaceErr error
	setErr     error

	createCalls  int
	upsertCalls  int
	replaceCalls int
	activeReads  int
	archived     [][2]string // userID, keepPlanID
	fieldCalls   []string
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{stored: map[string]*domain.WeeklyPlan{}}
}

func (r *fakePlanRepo) Create(ctx context.Context, p *domain.WeeklyPlan) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	cp := *p
	r.stored[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Upsert(ctx context.Context, p *domain.WeeklyPlan) error {
	r.upsertCalls++
	cp := *p
	r.stored[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, planID string) (*domain.WeeklyPlan, error) {
	p, ok := r.stored[planID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetActiveByUser(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	r.activeReads++
	for _, p := range r.stored {
		if p.UserID == userID && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) ArchiveOtherPlans(ctx context.Context, userID, keepPlanID string) error {
	r.archived = append(r.archived, [2]string{userID, keepPlanID})
	for id, p := range r.stored {
		if p.UserID == userID && id != keepPlanID {
			p.IsActive = false
		}
	}
	return nil
}

func (r *fakePlanRepo) ReplaceDays(ctx context.Context, planID string, days []domain.DayPlan) error {
	r.replaceCalls++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	p, ok := r.stored[planID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Days = days
	return nil
}

func (r *fakePlanRepo) SetExerciseComplete(ctx context.Context, planID string, dayIndex, exerciseIndex int, complete bool) error {
	r.fieldCalls = append(r.fieldCalls, fmt.Sprintf("%s/days.%d.workout.exercises.%d=%t", planID, dayIndex, exerciseIndex, complete))
	return r.setErr
}

func (r *fakePlanRepo) SetMealComplete(ctx context.Context, planID string, dayIndex, mealIndex int, complete bool) error {
	r.fieldCalls = append(r.fieldCalls, fmt.Sprintf("%s/days.%d.meals.%d=%t", planID, dayIndex, mealIndex, complete))
	return r.setErr
}

type fakeQueue struct {
	entries []outbox.Entry
}

func (q *fakeQueue) Enqueue(kind outbox.Kind, userID, planID string) {
	q.entries = append(q.entries, outbox.Entry{Kind: kind, UserID: userID, PlanID: planID})
}

type fakeGenerator struct {
	plan  *domain.WeeklyPlan
	err   error
	calls int
}

func (g *fakeGenerator) GeneratePlan(ctx context.Context, userID string, profile domain.UserProfileSnapshot, startDate time.Time) (*domain.WeeklyPlan, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.plan, nil
}

type fakeTextGen struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeTextGen) Generate(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeTextGen) Chat(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, prompt)
}

type fakeArchive struct {
	snapshots map[string][]byte
	urlErr    error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{snapshots: map[string][]byte{}}
}

func (a *fakeArchive) PutPlanSnapshot(ctx context.Context, objectKey string, data []byte) error {
	a.snapshots[objectKey] = data
	return nil
}

func (a *fakeArchive) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if a.urlErr != nil {
		return "", a.urlErr
	}
	return "https://example.com/" + objectKey, nil
}

// failingCache wraps the in-memory cache with injectable failures.
type failingCache struct {
	*cache.MemoryCache
	getErr error
	setErr error
}

func (c *failingCache) Get(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.MemoryCache.Get(ctx, userID)
}

func (c *failingCache) Set(ctx context.Context, userID string, p *domain.WeeklyPlan) error {
	if c.setErr != nil {
		return c.setErr
	}
	return c.MemoryCache.Set(ctx, userID, p)
}

// weekPlan builds a structurally valid seven-day plan: six training days with
// one meal and one exercise each, day 6 a rest day with one meal.
func weekPlan(userID, planID string, start time.Time) *domain.WeeklyPlan {
	days := make([]domain.DayPlan, 7)
	for i := range days {
		days[i] = domain.DayPlan{
			DayIndex: i,
			Date:     start.AddDate(0, 0, i),
			Meals: []domain.Meal{
				{ID: fmt.Sprintf("meal-%d-0", i), Name: "Oatmeal", Ingredients: []string{"oats"}},
			},
		}
		if i == 6 {
			days[i].Workout = &domain.Workout{Type: domain.WorkoutRest, Exercises: []domain.Exercise{}}
			continue
		}
		days[i].Workout = &domain.Workout{
			Type: domain.WorkoutStrength,
			Exercises: []domain.Exercise{
				{ID: fmt.Sprintf("ex-%d-0", i), Name: "Squat", Sets: 3, Reps: 8, RestSeconds: 90},
			},
		}
	}
	return &domain.WeeklyPlan{
		ID:        planID,
		UserID:    userID,
		CreatedAt: start,
		StartDate: start,
		Days:      days,
		IsActive:  true,
	}
}

func newTestPlanService(gen *fakeGenerator, txt *fakeTextGen, repo *fakePlanRepo, pc cache.PlanCache, q *fakeQueue, arc *fakeArchive) *planService {
	svc := NewPlanService(gen, txt, repo, pc, q, arc).(*planService)
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }
	return svc
}

// --- Tests ---

func TestGeneratePlan_WritesBothStoresAndArchivesPrior(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	prior := weekPlan("user-1", "plan-old", start.AddDate(0, 0, -7))
	repo.stored[prior.ID] = prior

	fresh := weekPlan("user-1", "plan-new", start)
	gen := &fakeGenerator{plan: fresh}
	pc := cache.NewMemoryCache()
	queue := &fakeQueue{}

	svc := newTestPlanService(gen, &fakeTextGen{}, repo, pc, queue, newFakeArchive())

	got, err := svc.GeneratePlan(context.Background(), "user-1", domain.UserProfileSnapshot{})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if got.ID != "plan-new" {
		t.Fatalf("got plan %q, want plan-new", got.ID)
	}

	if cached, err := pc.Get(context.Background(), "user-1"); err != nil || cached.ID != "plan-new" {
		t.Errorf("cache does not hold the new plan (err=%v)", err)
	}
	if repo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", repo.createCalls)
	}
	if repo.stored["plan-old"].IsActive {
		t.Error("superseded plan still active")
	}

	if len(queue.entries) != 1 {
		t.Fatalf("queued %d entries, want 1 archive export", len(queue.entries))
	}
	if e := queue.entries[0]; e.Kind != outbox.KindArchiveExport || e.PlanID != "plan-old" {
		t.Errorf("queued entry = %+v, want archive export for plan-old", e)
	}
}

func TestGeneratePlan_RemoteFailureQueuesSyncAndStillSucceeds(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	repo.createErr = errors.New("mongo unreachable")

	gen := &fakeGenerator{plan: weekPlan("user-1", "plan-new", start)}
	pc := cache.NewMemoryCache()
	queue := &fakeQueue{}

	svc := newTestPlanService(gen, &fakeTextGen{}, repo, pc, queue, newFakeArchive())

	got, err := svc.GeneratePlan(context.Background(), "user-1", domain.UserProfileSnapshot{})
	if err != nil {
		t.Fatalf("GeneratePlan should succeed on remote failure, got: %v", err)
	}
	if got == nil {
		t.Fatal("GeneratePlan returned nil plan")
	}

	if cached, err := pc.Get(context.Background(), "user-1"); err != nil || cached.ID != "plan-new" {
		t.Errorf("local copy missing after remote failure (err=%v)", err)
	}
	if len(queue.entries) != 1 || queue.entries[0].Kind != outbox.KindPlanUpsert {
		t.Fatalf("queued entries = %+v, want one plan upsert", queue.entries)
	}
}

func TestGeneratePlan_GenerationFailurePersistsNothing(t *testing.T) {
	repo := newFakePlanRepo()
	gen := &fakeGenerator{err: apperrors.New(apperrors.KindInvalidResponse, "schema violation")}
	pc := cache.NewMemoryCache()
	queue := &fakeQueue{}

	svc := newTestPlanService(gen, &fakeTextGen{}, repo, pc, queue, newFakeArchive())

	if _, err := svc.GeneratePlan(context.Background(), "user-1", domain.UserProfileSnapshot{}); err == nil {
		t.Fatal("expected generation error")
	}
	if _, err := pc.Get(context.Background(), "user-1"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Error("cache was written despite generation failure")
	}
	if repo.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", repo.createCalls)
	}
	if len(queue.entries) != 0 {
		t.Errorf("queued %d entries, want 0", len(queue.entries))
	}
}

func TestGetCurrentPlan_CacheHitSkipsRemote(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	pc := cache.NewMemoryCache()
	_ = pc.Set(context.Background(), "user-1", weekPlan("user-1", "plan-1", start))

	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, repo, pc, &fakeQueue{}, newFakeArchive())

	got, err := svc.GetCurrentPlan(context.Background(), "user-1")
	if err != nil || got == nil || got.ID != "plan-1" {
		t.Fatalf("GetCurrentPlan = (%v, %v), want plan-1", got, err)
	}
	if repo.activeReads != 0 {
		t.Errorf("remote reads = %d, want 0 on cache hit", repo.activeReads)
	}
}

func TestGetCurrentPlan_CacheMissBackfillsFromRemote(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	remote := weekPlan("user-1", "plan-1", start)
	repo.stored[remote.ID] = remote
	pc := cache.NewMemoryCache()

	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, repo, pc, &fakeQueue{}, newFakeArchive())

	got, err := svc.GetCurrentPlan(context.Background(), "user-1")
	if err != nil || got == nil || got.ID != "plan-1" {
		t.Fatalf("GetCurrentPlan = (%v, %v), want plan-1", got, err)
	}
	if cached, err := pc.Get(context.Background(), "user-1"); err != nil || cached.ID != "plan-1" {
		t.Errorf("cache not backfilled after remote read (err=%v)", err)
	}
}

func TestGetCurrentPlan_CacheErrorFallsBackToRemote(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	remote := weekPlan("user-1", "plan-1", start)
	repo.stored[remote.ID] = remote
	pc := &failingCache{MemoryCache: cache.NewMemoryCache(), getErr: errors.New("redis unreachable")}

	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, repo, pc, &fakeQueue{}, newFakeArchive())

	got, err := svc.GetCurrentPlan(context.Background(), "user-1")
	if err != nil || got == nil || got.ID != "plan-1" {
		t.Fatalf("GetCurrentPlan = (%v, %v), want plan-1 from remote", got, err)
	}
}

func TestGeneratePlan_CacheWriteFailureStillSucceeds(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	gen := &fakeGenerator{plan: weekPlan("user-1", "plan-new", start)}
	pc := &failingCache{MemoryCache: cache.NewMemoryCache(), setErr: errors.New("redis unreachable")}
	queue := &fakeQueue{}

	svc := newTestPlanService(gen, &fakeTextGen{}, repo, pc, queue, newFakeArchive())

	got, err := svc.GeneratePlan(context.Background(), "user-1", domain.UserProfileSnapshot{})
	if err != nil {
		t.Fatalf("GeneratePlan should survive a cache failure, got: %v", err)
	}
	if got == nil {
		t.Fatal("GeneratePlan returned nil plan")
	}
	if repo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", repo.createCalls)
	}
}

func TestGetCurrentPlan_NoPlanAnywhereReturnsNil(t *testing.T) {
	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, newFakePlanRepo(), cache.NewMemoryCache(), &fakeQueue{}, newFakeArchive())

	got, err := svc.GetCurrentPlan(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrentPlan: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for a user without a plan", got)
	}
}

func TestModifyPlan_MergesAndPersists(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	current := weekPlan("user-1", "plan-1", start)
	repo.stored[current.ID] = current
	pc := cache.NewMemoryCache()
	_ = pc.Set(context.Background(), "user-1", current)

	txt := &fakeTextGen{response: `{
		"modificationType": "mealUpdate",
		"modifiedDays": [{
			"dayIndex": 2,
			"workout": {"type": "cardio", "exercises": [{"id": "ex-2-0", "name": "Row", "sets": 4, "reps": 12, "restSeconds": 60}]},
			"meals": [{"id": "meal-2-0", "name": "Lentil soup", "ingredients": ["lentils"]}]
		}],
		"explanation": "Swapped day three to cardio with a lighter meal."
	}`}

	svc := newTestPlanService(&fakeGenerator{}, txt, repo, pc, &fakeQueue{}, newFakeArchive())

	got, err := svc.ModifyPlan(context.Background(), "user-1", "make day three easier")
	if err != nil {
		t.Fatalf("ModifyPlan: %v", err)
	}
	if got.Days[2].Meals[0].Name != "Lentil soup" {
		t.Errorf("day 2 meal = %q, want Lentil soup", got.Days[2].Meals[0].Name)
	}
	if got.Days[1].Meals[0].Name != "Oatmeal" {
		t.Error("untouched day was modified")
	}
	if got.Days[2].Date.IsZero() {
		t.Error("replaced day lost its date")
	}
	if repo.replaceCalls != 1 {
		t.Errorf("replaceCalls = %d, want 1", repo.replaceCalls)
	}
	if cached, _ := pc.Get(context.Background(), "user-1"); cached.Days[2].Meals[0].Name != "Lentil soup" {
		t.Error("cache does not hold the merged plan")
	}
}

func TestModifyPlan_RejectedPersistsNothing(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	current := weekPlan("user-1", "plan-1", start)
	repo.stored[current.ID] = current
	pc := cache.NewMemoryCache()
	_ = pc.Set(context.Background(), "user-1", current)

	txt := &fakeTextGen{response: `{"modificationType": "rejected", "modifiedDays": [], "explanation": "That would not be safe at your fitness level."}`}
	queue := &fakeQueue{}

	svc := newTestPlanService(&fakeGenerator{}, txt, repo, pc, queue, newFakeArchive())

	_, err := svc.ModifyPlan(context.Background(), "user-1", "triple every workout")
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if apperrors.KindOf(err) != apperrors.KindInvalidRequest {
		t.Errorf("kind = %v, want invalid_request", apperrors.KindOf(err))
	}
	if msg := apperrors.MessageOf(err); msg != "That would not be safe at your fitness level." {
		t.Errorf("message = %q, want the AI explanation", msg)
	}

	if repo.replaceCalls != 0 {
		t.Errorf("replaceCalls = %d, want 0 after rejection", repo.replaceCalls)
	}
	if len(queue.entries) != 0 {
		t.Errorf("queued %d entries, want 0 after rejection", len(queue.entries))
	}
	if cached, _ := pc.Get(context.Background(), "user-1"); cached.Days[2].Meals[0].Name != "Oatmeal" {
		t.Error("cache changed after a rejected modification")
	}
}

func TestModifyPlan_NoActivePlan(t *testing.T) {
	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, newFakePlanRepo(), cache.NewMemoryCache(), &fakeQueue{}, newFakeArchive())

	_, err := svc.ModifyPlan(context.Background(), "user-1", "anything")
	if !errors.Is(err, ErrNoActivePlan) {
		t.Fatalf("err = %v, want ErrNoActivePlan", err)
	}
}

func TestModifyPlan_RemoteFailureQueuesSync(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	current := weekPlan("user-1", "plan-1", start)
	repo.stored[current.ID] = current
	repo.replaceErr = errors.New("mongo unreachable")
	pc := cache.NewMemoryCache()
	_ = pc.Set(context.Background(), "user-1", current)

	txt := &fakeTextGen{response: `{
		"modificationType": "mealUpdate",
		"modifiedDays": [{
			"dayIndex": 0,
			"workout": {"type": "strength", "exercises": [{"id": "ex-0-0", "name": "Squat", "sets": 3, "reps": 8, "restSeconds": 90}]},
			"meals": [{"id": "meal-0-0", "name": "Shakshuka", "ingredients": ["eggs"]}]
		}],
		"explanation": "Changed breakfast."
	}`}
	queue := &fakeQueue{}

	svc := newTestPlanService(&fakeGenerator{}, txt, repo, pc, queue, newFakeArchive())

	got, err := svc.ModifyPlan(context.Background(), "user-1", "new breakfast")
	if err != nil {
		t.Fatalf("ModifyPlan should succeed on remote failure, got: %v", err)
	}
	if got.Days[0].Meals[0].Name != "Shakshuka" {
		t.Error("merge result missing modification")
	}
	if len(queue.entries) != 1 || queue.entries[0].Kind != outbox.KindPlanUpsert {
		t.Fatalf("queued entries = %+v, want one plan upsert", queue.entries)
	}
}

func TestArchiveDownloadURL_ChecksOwnership(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	repo.stored["plan-1"] = weekPlan("user-1", "plan-1", start)

	svc := newTestPlanService(&fakeGenerator{}, &fakeTextGen{}, repo, cache.NewMemoryCache(), &fakeQueue{}, newFakeArchive())

	if _, err := svc.ArchiveDownloadURL(context.Background(), "user-2", "plan-1"); !errors.Is(err, ErrPlanNotOwned) {
		t.Fatalf("err = %v, want ErrPlanNotOwned", err)
	}

	url, err := svc.ArchiveDownloadURL(context.Background(), "user-1", "plan-1")
	if err != nil {
		t.Fatalf("ArchiveDownloadURL: %v", err)
	}
	if url == "" {
		t.Fatal("empty presigned URL")
	}
}

func TestPlanUpsertHandler_ReplaysCachedPlan(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	pc := cache.NewMemoryCache()
	_ = pc.Set(context.Background(), "user-1", weekPlan("user-1", "plan-1", start))

	handler := PlanUpsertHandler(pc, repo)
	if err := handler(context.Background(), outbox.Entry{Kind: outbox.KindPlanUpsert, UserID: "user-1", PlanID: "plan-1"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if repo.upsertCalls != 1 {
		t.Errorf("upsertCalls = %d, want 1", repo.upsertCalls)
	}
	if _, ok := repo.stored["plan-1"]; !ok {
		t.Error("plan not replayed into the remote store")
	}
}

func TestPlanUpsertHandler_DropsWhenCacheEvicted(t *testing.T) {
	repo := newFakePlanRepo()
	handler := PlanUpsertHandler(cache.NewMemoryCache(), repo)

	if err := handler(context.Background(), outbox.Entry{Kind: outbox.KindPlanUpsert, UserID: "user-1", PlanID: "plan-1"}); err != nil {
		t.Fatalf("handler should drop a missing cache entry, got: %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Errorf("upsertCalls = %d, want 0", repo.upsertCalls)
	}
}

func TestArchiveExportHandler_WritesSnapshot(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	repo := newFakePlanRepo()
	repo.stored["plan-1"] = weekPlan("user-1", "plan-1", start)
	arc := newFakeArchive()

	handler := ArchiveExportHandler(repo, arc)
	if err := handler(context.Background(), outbox.Entry{Kind: outbox.KindArchiveExport, UserID: "user-1", PlanID: "plan-1"}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	data, ok := arc.snapshots["archives/user-1/plan-1.json"]
	if !ok {
		t.Fatalf("snapshot missing, stored keys: %v", keysOf(arc.snapshots))
	}
	if len(data) == 0 {
		t.Error("snapshot is empty")
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
