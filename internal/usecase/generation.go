package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type GenerationKind string

const (
	KindAvatar    GenerationKind = "avatar"
	KindAnimation GenerationKind = "animation"
)

// GenerationState is the observable state of a generation-backed entity.
type GenerationState string

const (
	StatePending  GenerationState = "PENDING"
	StateComplete GenerationState = "COMPLETE"
	StateFailed   GenerationState = "FAILED"
)

func stateOf(url *string, failedAt *time.Time) GenerationState {
	switch {
	case url != nil:
		return StateComplete
	case failedAt != nil:
		return StateFailed
	default:
		return StatePending
	}
}

// Job record statuses.
const (
	GenerationStatusPending    = "PENDING"
	GenerationStatusProcessing = "PROCESSING"
	GenerationStatusCompleted  = "COMPLETED"
	GenerationStatusFailed     = "FAILED"
)

type Generation struct {
	ID         uuid.UUID
	Kind       GenerationKind
	EntityID   uuid.UUID
	Status     string
	Attempts   int
	ResultURL  *string
	Error      string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ListGenerationsOption struct {
	Statuses      []string
	Kinds         []GenerationKind
	CreatedBefore *time.Time
	Limit         int
}

// Resolution is a terminal outcome written with a conditional update: it only
// applies to rows that are still pending.
type Resolution struct {
	URL           *string
	FailureReason *string
	At            time.Time
}

// Status is the polling view of a generation-backed entity.
type Status struct {
	ID            uuid.UUID       `json:"id"`
	Kind          GenerationKind  `json:"kind"`
	State         GenerationState `json:"state"`
	URL           *string         `json:"url,omitempty"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	UserID        *string         `json:"user_id,omitempty"`
	GenerationID  *uuid.UUID      `json:"generation_id,omitempty"`
}

func (s Status) IsComplete() bool {
	return s.State == StateComplete
}

func (s Status) Resolved() bool {
	return s.State != StatePending
}

func (u Usecase) loadStatus(ctx context.Context, kind GenerationKind, id uuid.UUID) (Status, error) {
	switch kind {
	case KindAvatar:
		a, err := u.repo.GetAvatarByID(ctx, id)
		if err != nil {
			return Status{}, err
		}
		return a.Status(), nil
	case KindAnimation:
		a, err := u.repo.GetAnimationByID(ctx, id)
		if err != nil {
			return Status{}, err
		}
		return a.Status(), nil
	}
	return Status{}, fmt.Errorf("unknown generation kind %q", kind)
}

func (u Usecase) resolve(ctx context.Context, kind GenerationKind, id uuid.UUID, r Resolution) (bool, error) {
	switch kind {
	case KindAvatar:
		return u.repo.ResolveAvatar(ctx, id, r)
	case KindAnimation:
		return u.repo.ResolveAnimation(ctx, id, r)
	}
	return false, fmt.Errorf("unknown generation kind %q", kind)
}

// status returns the caller-visible status, serving terminal states from the
// cache when one is configured.
func (u Usecase) status(ctx context.Context, caller Caller, kind GenerationKind, id uuid.UUID) (Status, error) {
	if err := caller.require(); err != nil {
		return Status{}, err
	}

	if u.statusCache != nil {
		st, ok, err := u.statusCache.GetStatus(ctx, kind, id)
		if err != nil {
			u.logger().WarnContext(ctx, "status cache read failed", slog.String("id", id.String()), slog.String("err", err.Error()))
		}
		if ok {
			if !caller.canView(st.UserID) {
				return Status{}, unauthorized(id, string(kind))
			}
			return st, nil
		}
	}

	st, err := u.loadStatus(ctx, kind, id)
	if err != nil {
		return Status{}, err
	}
	if !caller.canView(st.UserID) {
		return Status{}, unauthorized(id, string(kind))
	}
	if st.Resolved() {
		u.cacheStatus(ctx, st)
	}
	return st, nil
}

func (u Usecase) cacheStatus(ctx context.Context, st Status) {
	if u.statusCache == nil || !st.Resolved() {
		return
	}
	if err := u.statusCache.SetStatus(ctx, st); err != nil {
		u.logger().WarnContext(ctx, "status cache write failed", slog.String("id", st.ID.String()), slog.String("err", err.Error()))
	}
}

func (u Usecase) evictStatus(ctx context.Context, kind GenerationKind, id uuid.UUID) {
	if u.statusCache == nil {
		return
	}
	if err := u.statusCache.DeleteStatus(ctx, kind, id); err != nil {
		u.logger().WarnContext(ctx, "status cache evict failed", slog.String("id", id.String()), slog.String("err", err.Error()))
	}
}

// SetResult moves a pending entity to Complete. Repeating the call with the
// same URL is a no-op.
func (u Usecase) SetResult(ctx context.Context, kind GenerationKind, id uuid.UUID, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrInvalid{Field: "url", Message: "result url must not be empty"}
	}

	ok, err := u.resolve(ctx, kind, id, Resolution{URL: &url, At: u.now()})
	if err != nil {
		return err
	}

	st, err := u.loadStatus(ctx, kind, id)
	if err != nil {
		return err
	}

	if !ok {
		if st.State == StateComplete && *st.URL == url {
			return nil
		}
		return ErrInvalidTransition{ID: id, From: st.State, Event: "result"}
	}

	u.afterResolve(ctx, st)
	return nil
}

// Fail moves a pending entity to Failed. Failing an already failed entity is
// a no-op.
func (u Usecase) Fail(ctx context.Context, kind GenerationKind, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "generation failed"
	}

	ok, err := u.resolve(ctx, kind, id, Resolution{FailureReason: &reason, At: u.now()})
	if err != nil {
		return err
	}

	st, err := u.loadStatus(ctx, kind, id)
	if err != nil {
		return err
	}

	if !ok {
		if st.State == StateFailed {
			return nil
		}
		return ErrInvalidTransition{ID: id, From: st.State, Event: "failure"}
	}

	u.afterResolve(ctx, st)
	return nil
}

func (u Usecase) SetAvatarResult(ctx context.Context, id uuid.UUID, url string) error {
	return u.SetResult(ctx, KindAvatar, id, url)
}

func (u Usecase) SetAnimationResult(ctx context.Context, id uuid.UUID, url string) error {
	return u.SetResult(ctx, KindAnimation, id, url)
}

// afterResolve syncs the job record, the cache and the owner's inbox. None of
// these can undo the transition, so failures are only logged.
func (u Usecase) afterResolve(ctx context.Context, st Status) {
	u.cacheStatus(ctx, st)

	if st.GenerationID != nil {
		if err := u.finishGeneration(ctx, *st.GenerationID, st); err != nil {
			u.logger().ErrorContext(ctx, "failed to sync generation record",
				slog.String("generation_id", st.GenerationID.String()),
				slog.String("err", err.Error()))
		}
	}

	if st.UserID != nil && u.mailer != nil {
		if err := u.sendGenerationEmail(ctx, st); err != nil {
			u.logger().ErrorContext(ctx, "failed to send generation email",
				slog.String("id", st.ID.String()),
				slog.String("err", err.Error()))
		}
	}
}

func (u Usecase) finishGeneration(ctx context.Context, genID uuid.UUID, st Status) error {
	gen, err := u.repo.GetGenerationByID(ctx, genID)
	if err != nil {
		return err
	}
	finished := u.now()
	gen.FinishedAt = &finished
	switch st.State {
	case StateComplete:
		gen.Status = GenerationStatusCompleted
		gen.ResultURL = st.URL
	case StateFailed:
		gen.Status = GenerationStatusFailed
		if st.FailureReason != nil {
			gen.Error = *st.FailureReason
		}
	default:
		return nil
	}
	_, err = u.repo.UpdateGeneration(ctx, gen)
	return err
}

// startGeneration records the job and enqueues it. An enqueue failure leaves
// the entity pending; the expiry sweep fails it once it times out.
func (u Usecase) startGeneration(ctx context.Context, kind GenerationKind, entityID uuid.UUID) (Generation, error) {
	gen, err := u.repo.CreateGeneration(ctx, Generation{
		Kind:     kind,
		EntityID: entityID,
		Status:   GenerationStatusPending,
	})
	if err != nil {
		return Generation{}, fmt.Errorf("failed to create generation: %w", err)
	}
	return gen, nil
}

func (u Usecase) enqueue(ctx context.Context, gen Generation) {
	if u.queue == nil {
		return
	}
	if err := u.queue.EnqueueGeneration(ctx, gen); err != nil {
		u.logger().ErrorContext(ctx, "failed to enqueue generation",
			slog.String("generation_id", gen.ID.String()),
			slog.String("kind", string(gen.Kind)),
			slog.String("err", err.Error()))
	}
}

// ProcessGeneration runs one attempt of a generation job. When lastAttempt is
// set a generator error fails the entity instead of leaving it for a retry.
func (u Usecase) ProcessGeneration(ctx context.Context, genID uuid.UUID, lastAttempt bool) error {
	gen, err := u.repo.GetGenerationByID(ctx, genID)
	if err != nil {
		return fmt.Errorf("failed to get generation: %w", err)
	}

	st, err := u.loadStatus(ctx, gen.Kind, gen.EntityID)
	if err != nil {
		if IsNotFound(err) {
			finished := u.now()
			gen.Status = GenerationStatusFailed
			gen.Error = "entity deleted before generation ran"
			gen.FinishedAt = &finished
			_, uerr := u.repo.UpdateGeneration(ctx, gen)
			return uerr
		}
		return err
	}
	if st.Resolved() {
		return nil
	}

	now := u.now()
	gen.Status = GenerationStatusProcessing
	gen.Attempts++
	if gen.StartedAt == nil {
		gen.StartedAt = &now
	}
	if gen, err = u.repo.UpdateGeneration(ctx, gen); err != nil {
		return fmt.Errorf("failed to update generation to PROCESSING: %w", err)
	}

	url, err := u.runGenerator(ctx, gen)
	if err != nil {
		if lastAttempt {
			if ferr := u.Fail(ctx, gen.Kind, gen.EntityID, err.Error()); ferr != nil {
				return errors.Join(err, ferr)
			}
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	return u.SetResult(ctx, gen.Kind, gen.EntityID, url)
}

func (u Usecase) runGenerator(ctx context.Context, gen Generation) (string, error) {
	if u.generator == nil {
		return "", errors.New("no generator configured")
	}
	switch gen.Kind {
	case KindAvatar:
		a, err := u.repo.GetAvatarByID(ctx, gen.EntityID)
		if err != nil {
			return "", err
		}
		return u.generator.GenerateAvatar(ctx, a.Prompt.String())
	case KindAnimation:
		a, err := u.repo.GetAnimationByID(ctx, gen.EntityID)
		if err != nil {
			return "", err
		}
		if a.Avatar == nil || a.Avatar.ImageURL == nil {
			return "", errors.New("source avatar has no image")
		}
		return u.generator.GenerateAnimation(ctx, a.Prompt, *a.Avatar.ImageURL)
	}
	return "", fmt.Errorf("unknown generation kind %q", gen.Kind)
}

const expireConcurrency = 4

// ExpireGenerations fails every entity whose generation has been open longer
// than the configured timeout. It returns how many entities it failed.
func (u Usecase) ExpireGenerations(ctx context.Context) (int, error) {
	cutoff := u.now().Add(-u.cfg.GenerationTimeout)
	gens, err := u.repo.ListGenerations(ctx, ListGenerationsOption{
		Statuses:      []string{GenerationStatusPending, GenerationStatusProcessing},
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, err
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(expireConcurrency)
	for _, gen := range gens {
		g.Go(func() error {
			err := u.Fail(gctx, gen.Kind, gen.EntityID, "generation timed out")
			var it ErrInvalidTransition
			switch {
			case err == nil:
				expired.Add(1)
				return u.closeStaleGeneration(gctx, gen)
			case IsNotFound(err), errors.As(err, &it):
				return u.closeStaleGeneration(gctx, gen)
			default:
				return err
			}
		})
	}
	err = g.Wait()
	return int(expired.Load()), err
}

// closeStaleGeneration brings the job record in line with its entity when the
// entity was resolved or deleted without the record being updated.
func (u Usecase) closeStaleGeneration(ctx context.Context, gen Generation) error {
	fresh, err := u.repo.GetGenerationByID(ctx, gen.ID)
	if err != nil {
		return err
	}
	if fresh.FinishedAt != nil {
		return nil
	}

	st, err := u.loadStatus(ctx, gen.Kind, gen.EntityID)
	finished := u.now()
	fresh.FinishedAt = &finished
	switch {
	case IsNotFound(err):
		fresh.Status = GenerationStatusFailed
		fresh.Error = "entity deleted"
	case err != nil:
		return err
	case st.State == StateComplete:
		fresh.Status = GenerationStatusCompleted
		fresh.ResultURL = st.URL
	default:
		fresh.Status = GenerationStatusFailed
		if st.FailureReason != nil {
			fresh.Error = *st.FailureReason
		}
	}
	_, err = u.repo.UpdateGeneration(ctx, fresh)
	return err
}
