package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fitweek/planner/internal/ai"
	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/cache"
	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/outbox"
	"fitweek/planner/internal/plan"
	"fitweek/planner/internal/repository"
	"fitweek/planner/internal/storage"
)

// --- Error Definitions ---
var (
	ErrNoActivePlan = apperrors.New(apperrors.KindInvalidRequest, "You don't have an active plan yet. Generate one first.")
	ErrPlanNotOwned = apperrors.New(apperrors.KindPermissionDenied, "This plan belongs to another user.")
)

// PlanService is the synchronization repository for weekly plans: it drives
// generation and modification, and reconciles the local cache with the
// remote store. Reads are local-first; writes commit locally first and push
// to the remote store best-effort, falling back to the outbox.
type PlanService interface {
	GeneratePlan(ctx context.Context, userID string, profile domain.UserProfileSnapshot) (*domain.WeeklyPlan, error)
	// GetCurrentPlan returns the active plan, or nil when the user has none.
	GetCurrentPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
	ModifyPlan(ctx context.Context, userID, request string) (*domain.WeeklyPlan, error)
	Chat(ctx context.Context, userID, message string) (string, error)
	// ArchiveDownloadURL returns a temporary URL for an archived plan snapshot.
	ArchiveDownloadURL(ctx context.Context, userID, planID string) (string, error)
}

// planGenerator is the batched generation orchestrator boundary.
type planGenerator interface {
	GeneratePlan(ctx context.Context, userID string, profile domain.UserProfileSnapshot, startDate time.Time) (*domain.WeeklyPlan, error)
}

// syncQueue is the outbox boundary. Entries queued here are replayed against
// the remote side until they land.
type syncQueue interface {
	Enqueue(kind outbox.Kind, userID, planID string)
}

// planService implements the PlanService interface.
type planService struct {
	generator planGenerator
	aiClient  ai.TextGenerator
	planRepo  repository.PlanRepository
	planCache cache.PlanCache
	queue     syncQueue
	archive   storage.ArchiveStorage

	now func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	generator planGenerator,
	aiClient ai.TextGenerator,
	planRepo repository.PlanRepository,
	planCache cache.PlanCache,
	queue syncQueue,
	archive storage.ArchiveStorage,
) PlanService {
	return &planService{
		generator: generator,
		aiClient:  aiClient,
		planRepo:  planRepo,
		planCache: planCache,
		queue:     queue,
		archive:   archive,
		now:       time.Now,
	}
}

// === Generation ===

// GeneratePlan drives the batched orchestrator end to end and persists the
// result through the local-first write path. The previously active plan is
// archived (never deleted) and its snapshot queued for export.
func (s *planService) GeneratePlan(ctx context.Context, userID string, profile domain.UserProfileSnapshot) (*domain.WeeklyPlan, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "A user is required to generate a plan.")
	}

	// Remember the plan being superseded so its snapshot can be exported.
	var supersededID string
	if prior, err := s.planRepo.GetActiveByUser(ctx, userID); err == nil {
		supersededID = prior.ID
	}

	startDate := truncateToDay(s.now())
	weekly, err := s.generator.GeneratePlan(ctx, userID, profile, startDate)
	if err != nil {
		// Nothing was persisted; the failure is terminal for this operation.
		return nil, err
	}

	s.writeThrough(ctx, weekly, true)

	if supersededID != "" {
		s.queue.Enqueue(outbox.KindArchiveExport, userID, supersededID)
	}
	return weekly, nil
}

// === Read path ===

// GetCurrentPlan reads local-first: cache hit wins, a miss falls through to
// the remote store and backfills the cache. When neither side has data (or
// the remote read fails with a cold cache) the result is nil without error.
func (s *planService) GetCurrentPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	if cached, err := s.planCache.Get(ctx, userID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("plan cache read failed, falling back to remote", "user_id", userID, "error", err.Error())
	}

	remote, err := s.planRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		slog.Warn("remote plan read failed with a cold cache", "user_id", userID, "error", err.Error())
		return nil, nil
	}

	if err := s.planCache.Set(ctx, userID, remote); err != nil {
		slog.Warn("plan cache backfill failed", "user_id", userID, "error", err.Error())
	}
	return remote, nil
}

// === Modification ===

// ModifyPlan asks the AI for a day-indexed diff against the current plan,
// merges it and persists the result. A rejected modification surfaces the
// AI's explanation as an invalidRequest error and persists nothing.
func (s *planService) ModifyPlan(ctx context.Context, userID, request string) (*domain.WeeklyPlan, error) {
	current, err := s.GetCurrentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoActivePlan
	}

	raw, err := s.aiClient.Generate(ctx, ai.BuildModificationPrompt(current, request))
	if err != nil {
		return nil, err
	}
	mod, err := ai.ParseModification(raw)
	if err != nil {
		return nil, err
	}

	merged, err := plan.Merge(current, mod)
	if err != nil {
		return nil, err
	}

	s.writeThrough(ctx, merged, false)
	return merged, nil
}

// === Chat ===

// Chat issues one lightweight coach call. The current plan's profile
// snapshot, when present, gives the coach context.
func (s *planService) Chat(ctx context.Context, userID, message string) (string, error) {
	var profile domain.UserProfileSnapshot
	if current, err := s.GetCurrentPlan(ctx, userID); err == nil && current != nil {
		profile = current.ProfileSnapshot
	}
	return s.aiClient.Chat(ctx, ai.BuildChatPrompt(profile, message))
}

// === Archive ===

// ArchiveDownloadURL checks ownership and returns a presigned URL for the
// plan's exported snapshot.
func (s *planService) ArchiveDownloadURL(ctx context.Context, userID, planID string) (string, error) {
	stored, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.New(apperrors.KindNotFound, "No such plan.")
		}
		return "", apperrors.Wrap(err, apperrors.KindSyncFailed, "Could not look up the plan.")
	}
	if stored.UserID != userID {
		return "", ErrPlanNotOwned
	}
	url, err := s.archive.GeneratePresignedDownloadURL(ctx, storage.SnapshotKey(userID, planID), storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSyncFailed, "Could not create a download link.")
	}
	return url, nil
}

// === Write path ===

// writeThrough commits the plan locally first (best-effort, logged and
// swallowed on failure), then pushes to the remote store. A remote failure
// does not fail the operation; an outbox entry keeps the remote side
// eventually consistent. isNew distinguishes a fresh document from a
// days-only rewrite of an existing one.
func (s *planService) writeThrough(ctx context.Context, weekly *domain.WeeklyPlan, isNew bool) {
	if err := s.planCache.Set(ctx, weekly.UserID, weekly); err != nil {
		slog.Warn("local plan write failed", "user_id", weekly.UserID, "plan_id", weekly.ID, "error", err.Error())
	}

	var err error
	if isNew {
		if err = s.planRepo.Create(ctx, weekly); err == nil {
			err = s.planRepo.ArchiveOtherPlans(ctx, weekly.UserID, weekly.ID)
		}
	} else {
		err = s.planRepo.ReplaceDays(ctx, weekly.ID, weekly.Days)
	}
	if err != nil {
		slog.Warn("remote plan write failed, queueing for sync",
			"user_id", weekly.UserID, "plan_id", weekly.ID, "error", err.Error())
		s.queue.Enqueue(outbox.KindPlanUpsert, weekly.UserID, weekly.ID)
	}
}

// === Outbox handlers ===

// PlanUpsertHandler replays the locally cached plan into the remote store.
func PlanUpsertHandler(planCache cache.PlanCache, planRepo repository.PlanRepository) outbox.Handler {
	return func(ctx context.Context, entry outbox.Entry) error {
		weekly, err := planCache.Get(ctx, entry.UserID)
		if err != nil {
			// Cache entry is gone; there is nothing left to reconcile.
			slog.Warn("dropping plan sync, local copy no longer cached", "user_id", entry.UserID)
			return nil
		}
		if err := planRepo.Upsert(ctx, weekly); err != nil {
			return err
		}
		return planRepo.ArchiveOtherPlans(ctx, weekly.UserID, weekly.ID)
	}
}

// ArchiveExportHandler exports one archived plan as a JSON snapshot to
// object storage.
func ArchiveExportHandler(planRepo repository.PlanRepository, archive storage.ArchiveStorage) outbox.Handler {
	return func(ctx context.Context, entry outbox.Entry) error {
		stored, err := planRepo.GetByID(ctx, entry.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				slog.Warn("dropping archive export, plan no longer stored", "plan_id", entry.PlanID)
				return nil
			}
			return err
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return archive.PutPlanSnapshot(ctx, storage.SnapshotKey(entry.UserID, entry.PlanID), data)
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
