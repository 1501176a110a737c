package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Animation struct {
	ID            uuid.UUID
	VideoURL      *string
	Prompt        string
	AvatarID      *uuid.UUID
	UserID        *string
	GenerationID  *uuid.UUID
	FailureReason *string
	FailedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Avatar is the source avatar; nil once the avatar is deleted.
	Avatar *Avatar
}

func (a Animation) State() GenerationState {
	return stateOf(a.VideoURL, a.FailedAt)
}

func (a Animation) Resolved() bool {
	return a.State() != StatePending
}

func (a Animation) Status() Status {
	return Status{
		ID:            a.ID,
		Kind:          KindAnimation,
		State:         a.State(),
		URL:           a.VideoURL,
		FailureReason: a.FailureReason,
		UserID:        a.UserID,
		GenerationID:  a.GenerationID,
	}
}

type ListAnimationsOption struct {
	ViewerID string
}

func (u Usecase) ListAnimations(ctx context.Context, caller Caller) ([]Animation, error) {
	if err := caller.require(); err != nil {
		return nil, err
	}
	return u.repo.ListAnimations(ctx, ListAnimationsOption{ViewerID: caller.ID})
}

func (u Usecase) GetAnimationByID(ctx context.Context, caller Caller, id uuid.UUID) (Animation, error) {
	if err := caller.require(); err != nil {
		return Animation{}, err
	}
	a, err := u.repo.GetAnimationByID(ctx, id)
	if err != nil {
		return Animation{}, err
	}
	if !caller.canView(a.UserID) {
		return Animation{}, unauthorized(id, "animation")
	}
	return a, nil
}

func (u Usecase) GetAnimationStatus(ctx context.Context, caller Caller, id uuid.UUID) (Status, error) {
	return u.status(ctx, caller, KindAnimation, id)
}

// CreateAnimation starts an animation of an avatar the caller can see. The
// avatar reference is required here even though storage allows it to be
// cleared later.
func (u Usecase) CreateAnimation(ctx context.Context, caller Caller, avatarID uuid.UUID, prompt string) (Animation, error) {
	if err := caller.require(); err != nil {
		return Animation{}, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Animation{}, ErrInvalid{Field: "prompt", Message: "prompt must not be empty"}
	}
	if avatarID == uuid.Nil {
		return Animation{}, ErrInvalid{Field: "avatar_id", Message: "avatar_id is required"}
	}

	src, err := u.GetAvatarByID(ctx, caller, avatarID)
	if err != nil {
		return Animation{}, err
	}
	if src.State() != StateComplete {
		return Animation{}, ErrInvalid{Field: "avatar_id", Message: "avatar " + avatarID.String() + " has no image yet"}
	}

	id := uuid.New()
	gen, err := u.startGeneration(ctx, KindAnimation, id)
	if err != nil {
		return Animation{}, err
	}

	a, err := u.repo.CreateAnimation(ctx, Animation{
		ID:           id,
		Prompt:       prompt,
		AvatarID:     &src.ID,
		UserID:       caller.ownerRef(),
		GenerationID: &gen.ID,
	})
	if err != nil {
		return Animation{}, fmt.Errorf("failed to create animation: %w", err)
	}

	u.enqueue(ctx, gen)
	return a, nil
}

func (u Usecase) UpdateAnimationPrompt(ctx context.Context, caller Caller, id uuid.UUID, prompt string) (Animation, error) {
	if err := caller.require(); err != nil {
		return Animation{}, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Animation{}, ErrInvalid{Field: "prompt", Message: "prompt must not be empty"}
	}
	a, err := u.repo.GetAnimationByID(ctx, id)
	if err != nil {
		return Animation{}, err
	}
	if !caller.owns(a.UserID) {
		return Animation{}, unauthorized(id, "animation")
	}
	return u.repo.UpdateAnimationPrompt(ctx, id, prompt)
}

func (u Usecase) DeleteAnimation(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := caller.require(); err != nil {
		return err
	}
	a, err := u.repo.GetAnimationByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.owns(a.UserID) {
		return unauthorized(id, "animation")
	}
	if err := u.repo.DeleteAnimation(ctx, id); err != nil {
		return err
	}
	u.evictStatus(ctx, KindAnimation, id)
	return nil
}
