package usecase

import (
	"context"
	"time"
)

type User struct {
	ID        string
	Name      string
	Email     string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is what the identity provider knows about a verified token.
type Identity struct {
	UID     string
	Name    string
	Email   string
	Picture string
}

// VerifyIDToken fails with ErrUnauthenticated when no identity provider is
// configured, so bearer tokens are rejected rather than trusted.
func (u Usecase) VerifyIDToken(ctx context.Context, token string) (Identity, error) {
	if u.identityProvider == nil {
		return Identity{}, ErrUnauthenticated
	}
	return u.identityProvider.VerifyIDToken(ctx, token)
}

// SyncUser makes sure the identity has a users row so owned entities can
// reference it. Existing rows are left untouched.
func (u Usecase) SyncUser(ctx context.Context, id Identity) (User, error) {
	user, err := u.repo.GetUserByID(ctx, id.UID)
	if err == nil {
		return user, nil
	}
	if !IsNotFound(err) {
		return User{}, err
	}
	return u.repo.UpsertUser(ctx, User{
		ID:    id.UID,
		Name:  id.Name,
		Email: id.Email,
		Image: id.Picture,
	})
}

func (u Usecase) GetMe(ctx context.Context, caller Caller) (User, error) {
	if err := caller.require(); err != nil {
		return User{}, err
	}
	return u.repo.GetUserByID(ctx, caller.ID)
}
