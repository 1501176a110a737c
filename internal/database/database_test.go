package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

func newTestService(t *testing.T) *service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := gorm.Open(
		sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"),
		&gorm.Config{Logger: NewSlogGormLogger(logger)},
	)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	s, err := New(gormDB)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUser(t *testing.T, s *service, id string) {
	t.Helper()
	if _, err := s.UpsertUser(context.Background(), usecase.User{ID: id, Name: id}); err != nil {
		t.Fatalf("upsert user %s: %v", id, err)
	}
}

func mustAvatar(t *testing.T, s *service, owner *string, remixedFrom *uuid.UUID) usecase.Avatar {
	t.Helper()
	a, err := s.CreateAvatar(context.Background(), usecase.Avatar{
		Prompt:        usecase.PlainText("a fox"),
		UserID:        owner,
		RemixedFromID: remixedFrom,
	})
	if err != nil {
		t.Fatalf("create avatar: %v", err)
	}
	return a
}

func ptr[T any](v T) *T {
	return &v
}

func TestListAvatarsVisibility(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	mustUser(t, s, "alice")
	mustUser(t, s, "bob")

	curated := mustAvatar(t, s, nil, nil)
	own := mustAvatar(t, s, ptr("alice"), nil)
	foreign := mustAvatar(t, s, ptr("bob"), nil)

	tests := []struct {
		scope usecase.AvatarScope
		want  []uuid.UUID
	}{
		{scope: usecase.AvatarScopeAll, want: []uuid.UUID{curated.ID, own.ID}},
		{scope: usecase.AvatarScopeCurated, want: []uuid.UUID{curated.ID}},
		{scope: usecase.AvatarScopeOwn, want: []uuid.UUID{own.ID}},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			list, err := s.ListAvatars(ctx, usecase.ListAvatarsOption{ViewerID: "alice", Scope: tt.scope})
			if err != nil {
				t.Fatal(err)
			}
			got := map[uuid.UUID]bool{}
			for _, a := range list {
				got[a.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d avatars, want %d", len(got), len(tt.want))
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing %s", id)
				}
			}
			if got[foreign.ID] {
				t.Error("listed another user's avatar")
			}
		})
	}
}

func TestAvatarPromptRoundTrip(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	prompt := usecase.Structured(map[string]any{"subject": "fox", "style": "pixel"})
	a, err := s.CreateAvatar(ctx, usecase.Avatar{Prompt: prompt})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAvatarByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	fields, ok := got.Prompt.Fields()
	if !ok || fields["style"] != "pixel" {
		t.Errorf("prompt = %v", got.Prompt)
	}

	updated, err := s.UpdateAvatarPrompt(ctx, a.ID, usecase.PlainText("a wolf"))
	if err != nil {
		t.Fatal(err)
	}
	if text, ok := updated.Prompt.Text(); !ok || text != "a wolf" {
		t.Errorf("updated prompt = %v", updated.Prompt)
	}

	_, err = s.UpdateAvatarPrompt(ctx, uuid.New(), usecase.PlainText("x"))
	if !usecase.IsNotFound(err) {
		t.Errorf("update missing avatar err = %v, want not found", err)
	}
}

func TestResolveAvatarIsConditional(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	a := mustAvatar(t, s, nil, nil)
	now := time.Now()

	ok, err := s.ResolveAvatar(ctx, a.ID, usecase.Resolution{URL: ptr("https://cdn.example.com/1.png"), At: now})
	if err != nil || !ok {
		t.Fatalf("first resolve = %v, %v", ok, err)
	}

	tests := []struct {
		name string
		r    usecase.Resolution
	}{
		{name: "second result", r: usecase.Resolution{URL: ptr("https://cdn.example.com/2.png"), At: now}},
		{name: "failure", r: usecase.Resolution{FailureReason: ptr("boom"), At: now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.ResolveAvatar(ctx, a.ID, tt.r)
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Error("resolved an already complete avatar")
			}
		})
	}

	got, err := s.GetAvatarByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State() != usecase.StateComplete || *got.ImageURL != "https://cdn.example.com/1.png" || got.FailedAt != nil {
		t.Errorf("avatar = %+v", got)
	}
}

func TestDeleteAvatarClearsReferences(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	mustUser(t, s, "alice")

	src := mustAvatar(t, s, ptr("alice"), nil)
	remix := mustAvatar(t, s, ptr("alice"), &src.ID)
	anim, err := s.CreateAnimation(ctx, usecase.Animation{
		Prompt:   "wave",
		AvatarID: &src.ID,
		UserID:   ptr("alice"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if anim.Avatar == nil || anim.Avatar.ID != src.ID {
		t.Fatalf("animation avatar not preloaded: %+v", anim.Avatar)
	}

	if err := s.DeleteAvatar(ctx, src.ID); err != nil {
		t.Fatal(err)
	}

	gotRemix, err := s.GetAvatarByID(ctx, remix.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotRemix.RemixedFromID != nil {
		t.Errorf("remixed_from_id = %v, want nil", gotRemix.RemixedFromID)
	}

	gotAnim, err := s.GetAnimationByID(ctx, anim.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotAnim.AvatarID != nil || gotAnim.Avatar != nil {
		t.Errorf("animation still references deleted avatar: %+v", gotAnim)
	}

	if err := s.DeleteAvatar(ctx, src.ID); !usecase.IsNotFound(err) {
		t.Errorf("second delete err = %v, want not found", err)
	}
}

func TestUploadsFollowUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	mustUser(t, s, "alice")
	mustUser(t, s, "bob")

	uploads := []usecase.Upload{
		{UserID: "alice", Type: usecase.UploadTypeImage, URL: "u1", Filename: "a.png", MimeType: "image/png"},
		{UserID: "alice", Type: usecase.UploadTypeDemo, URL: "u2", Filename: "b.mp4", MimeType: "video/mp4", Demo: true},
		{UserID: "bob", Type: usecase.UploadTypeVideo, URL: "u3", Filename: "c.mp4", MimeType: "video/mp4"},
	}
	for _, up := range uploads {
		if _, err := s.CreateUpload(ctx, up); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		opt  usecase.ListUploadsOption
		want int
	}{
		{name: "all of alice", opt: usecase.ListUploadsOption{UserID: "alice"}, want: 2},
		{name: "alice images", opt: usecase.ListUploadsOption{UserID: "alice", Type: usecase.UploadTypeImage}, want: 1},
		{name: "alice demos", opt: usecase.ListUploadsOption{UserID: "alice", Demo: ptr(true)}, want: 1},
		{name: "alice non demos", opt: usecase.ListUploadsOption{UserID: "alice", Demo: ptr(false)}, want: 1},
		{name: "bob", opt: usecase.ListUploadsOption{UserID: "bob"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListUploads(ctx, tt.opt)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != tt.want {
				t.Errorf("got %d uploads, want %d", len(list), tt.want)
			}
		})
	}

	if err := s.db.WithContext(ctx).Delete(&User{}, "id = ?", "alice").Error; err != nil {
		t.Fatal(err)
	}
	list, err := s.ListUploads(ctx, usecase.ListUploadsOption{UserID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("got %d uploads after user deletion, want 0", len(list))
	}
}

func TestListGenerationsFilters(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	stale, err := s.CreateGeneration(ctx, usecase.Generation{
		Kind: usecase.KindAvatar, EntityID: uuid.New(), Status: usecase.GenerationStatusPending, CreatedAt: old,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateGeneration(ctx, usecase.Generation{
		Kind: usecase.KindAnimation, EntityID: uuid.New(), Status: usecase.GenerationStatusPending,
	}); err != nil {
		t.Fatal(err)
	}
	done, err := s.CreateGeneration(ctx, usecase.Generation{
		Kind: usecase.KindAvatar, EntityID: uuid.New(), Status: usecase.GenerationStatusCompleted, CreatedAt: old,
	})
	if err != nil {
		t.Fatal(err)
	}

	cutoff := time.Now().Add(-time.Minute)
	gens, err := s.ListGenerations(ctx, usecase.ListGenerationsOption{
		Statuses:      []string{usecase.GenerationStatusPending, usecase.GenerationStatusProcessing},
		CreatedBefore: &cutoff,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 1 || gens[0].ID != stale.ID {
		t.Errorf("stale generations = %+v", gens)
	}

	finished := time.Now()
	done.Error = "late"
	done.FinishedAt = &finished
	updated, err := s.UpdateGeneration(ctx, done)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Error != "late" || updated.FinishedAt == nil {
		t.Errorf("updated generation = %+v", updated)
	}

	_, err = s.GetGenerationByID(ctx, uuid.New())
	var nf usecase.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("missing generation err = %v", err)
	}
}

func TestListProductsActiveOnly(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	products := []Product{
		{Name: "Pro", PriceCents: 1500, Currency: "usd", Active: true},
		{Name: "Legacy", PriceCents: 500, Currency: "usd", Active: false},
	}
	if err := s.db.WithContext(ctx).Create(&products).Error; err != nil {
		t.Fatal(err)
	}

	all, err := s.ListProducts(ctx, usecase.ListProductsOption{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Name != "Legacy" {
		t.Errorf("all products = %+v", all)
	}

	active, err := s.ListProducts(ctx, usecase.ListProductsOption{ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Name != "Pro" {
		t.Errorf("active products = %+v", active)
	}
}
