package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Avatar struct {
	ID            uuid.UUID
	ImageURL      *string
	Prompt        Prompt
	UserID        *string
	RemixedFromID *uuid.UUID
	GenerationID  *uuid.UUID
	FailureReason *string
	FailedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a Avatar) State() GenerationState {
	return stateOf(a.ImageURL, a.FailedAt)
}

func (a Avatar) Resolved() bool {
	return a.State() != StatePending
}

// IsCurated reports whether the avatar is a shared template with no owner.
func (a Avatar) IsCurated() bool {
	return a.UserID == nil
}

func (a Avatar) Status() Status {
	return Status{
		ID:            a.ID,
		Kind:          KindAvatar,
		State:         a.State(),
		URL:           a.ImageURL,
		FailureReason: a.FailureReason,
		UserID:        a.UserID,
		GenerationID:  a.GenerationID,
	}
}

type AvatarScope string

const (
	AvatarScopeAll     AvatarScope = ""
	AvatarScopeCurated AvatarScope = "curated"
	AvatarScopeOwn     AvatarScope = "own"
)

type ListAvatarsOption struct {
	ViewerID string
	Scope    AvatarScope
}

// ListAvatars returns curated avatars plus the caller's own, newest first.
func (u Usecase) ListAvatars(ctx context.Context, caller Caller, scope AvatarScope) ([]Avatar, error) {
	if err := caller.require(); err != nil {
		return nil, err
	}
	return u.repo.ListAvatars(ctx, ListAvatarsOption{
		ViewerID: caller.ID,
		Scope:    scope,
	})
}

func (u Usecase) GetAvatarByID(ctx context.Context, caller Caller, id uuid.UUID) (Avatar, error) {
	if err := caller.require(); err != nil {
		return Avatar{}, err
	}
	a, err := u.repo.GetAvatarByID(ctx, id)
	if err != nil {
		return Avatar{}, err
	}
	if !caller.canView(a.UserID) {
		return Avatar{}, unauthorized(id, "avatar")
	}
	return a, nil
}

func (u Usecase) GetAvatarStatus(ctx context.Context, caller Caller, id uuid.UUID) (Status, error) {
	return u.status(ctx, caller, KindAvatar, id)
}

// CreateAvatar stores a pending avatar owned by the caller and starts its
// generation.
func (u Usecase) CreateAvatar(ctx context.Context, caller Caller, prompt Prompt) (Avatar, error) {
	if err := caller.require(); err != nil {
		return Avatar{}, err
	}
	return u.createAvatar(ctx, prompt, caller.ownerRef(), nil)
}

// CreateCuratedAvatar stores an ownerless avatar visible to everyone.
func (u Usecase) CreateCuratedAvatar(ctx context.Context, prompt Prompt) (Avatar, error) {
	return u.createAvatar(ctx, prompt, nil, nil)
}

func (u Usecase) createAvatar(ctx context.Context, prompt Prompt, owner *string, remixedFrom *uuid.UUID) (Avatar, error) {
	if prompt.IsZero() {
		return Avatar{}, ErrInvalid{Field: "prompt", Message: "prompt must not be empty"}
	}

	id := uuid.New()
	gen, err := u.startGeneration(ctx, KindAvatar, id)
	if err != nil {
		return Avatar{}, err
	}

	a, err := u.repo.CreateAvatar(ctx, Avatar{
		ID:            id,
		Prompt:        prompt,
		UserID:        owner,
		RemixedFromID: remixedFrom,
		GenerationID:  &gen.ID,
	})
	if err != nil {
		return Avatar{}, fmt.Errorf("failed to create avatar: %w", err)
	}

	u.enqueue(ctx, gen)
	return a, nil
}

// RemixAvatar creates a new avatar from a visible source. An empty prompt
// reuses the source prompt.
func (u Usecase) RemixAvatar(ctx context.Context, caller Caller, sourceID uuid.UUID, prompt Prompt) (Avatar, error) {
	src, err := u.GetAvatarByID(ctx, caller, sourceID)
	if err != nil {
		return Avatar{}, err
	}
	if prompt.IsZero() {
		prompt = src.Prompt
	}
	return u.createAvatar(ctx, prompt, caller.ownerRef(), &src.ID)
}

// RegenerateAvatar creates a fresh avatar from one of the caller's own
// avatars. The source row is left as is.
func (u Usecase) RegenerateAvatar(ctx context.Context, caller Caller, sourceID uuid.UUID) (Avatar, error) {
	if err := caller.require(); err != nil {
		return Avatar{}, err
	}
	src, err := u.repo.GetAvatarByID(ctx, sourceID)
	if err != nil {
		return Avatar{}, err
	}
	if !caller.owns(src.UserID) {
		return Avatar{}, unauthorized(sourceID, "avatar")
	}
	return u.createAvatar(ctx, src.Prompt, caller.ownerRef(), &src.ID)
}

// UpdateAvatarPrompt edits the prompt only; the image is kept.
func (u Usecase) UpdateAvatarPrompt(ctx context.Context, caller Caller, id uuid.UUID, prompt Prompt) (Avatar, error) {
	if err := caller.require(); err != nil {
		return Avatar{}, err
	}
	if prompt.IsZero() {
		return Avatar{}, ErrInvalid{Field: "prompt", Message: "prompt must not be empty"}
	}
	a, err := u.repo.GetAvatarByID(ctx, id)
	if err != nil {
		return Avatar{}, err
	}
	if !caller.owns(a.UserID) {
		return Avatar{}, unauthorized(id, "avatar")
	}
	return u.repo.UpdateAvatarPrompt(ctx, id, prompt)
}

func (u Usecase) DeleteAvatar(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := caller.require(); err != nil {
		return err
	}
	a, err := u.repo.GetAvatarByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.owns(a.UserID) {
		return unauthorized(id, "avatar")
	}
	if err := u.repo.DeleteAvatar(ctx, id); err != nil {
		return err
	}
	u.evictStatus(ctx, KindAvatar, id)
	return nil
}
