package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/avatarstudio/avatarstudio/internal/queue/tasks"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

type fakeUsecase struct {
	genID       uuid.UUID
	lastAttempt bool
	processErr  error

	expired   int
	expireErr error

	helloPayload []byte
}

func (f *fakeUsecase) ProcessGeneration(_ context.Context, id uuid.UUID, last bool) error {
	f.genID = id
	f.lastAttempt = last
	return f.processErr
}

func (f *fakeUsecase) ExpireGenerations(context.Context) (int, error) {
	return f.expired, f.expireErr
}

func (f *fakeUsecase) ProcessHelloWorld(_ context.Context, payload []byte) (string, error) {
	f.helloPayload = payload
	return "Hello, world!", nil
}

func TestHandleGeneration(t *testing.T) {
	genID := uuid.New()
	boom := errors.New("generator down")

	tests := []struct {
		name       string
		payload    string
		processErr error
		wantErr    error
		wantSkip   bool
		wantCalled bool
	}{
		{
			name:       "delegates to usecase",
			payload:    `{"generation_id":"` + genID.String() + `","kind":"avatar","entity_id":"` + uuid.NewString() + `"}`,
			wantCalled: true,
		},
		{
			name:       "usecase error is retried",
			payload:    `{"generation_id":"` + genID.String() + `","kind":"avatar"}`,
			processErr: boom,
			wantErr:    boom,
			wantCalled: true,
		},
		{
			name:     "malformed payload skips retry",
			payload:  `{not json`,
			wantSkip: true,
		},
		{
			name:     "missing generation id skips retry",
			payload:  `{"kind":"animation"}`,
			wantSkip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUsecase{processErr: tt.processErr}
			h := NewHandlers(uc, nil)

			err := h.HandleGeneration(context.Background(), asynq.NewTask("generate:avatar", []byte(tt.payload)))

			if tt.wantSkip {
				if !errors.Is(err, asynq.SkipRetry) {
					t.Fatalf("Expected SkipRetry, got %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			if called := uc.genID != uuid.Nil; called != tt.wantCalled {
				t.Fatalf("Expected called=%v, got %v", tt.wantCalled, called)
			}
			if tt.wantCalled {
				if uc.genID != genID {
					t.Errorf("Expected generation %s, got %s", genID, uc.genID)
				}
				if uc.lastAttempt {
					t.Error("Expected lastAttempt false outside a worker")
				}
			}
		})
	}
}

func TestHandleGenerationReadsClientPayload(t *testing.T) {
	genID := uuid.New()
	payload, err := json.Marshal(tasks.GenerationPayload{
		GenerationID: genID,
		Kind:         usecase.KindAnimation,
		EntityID:     uuid.New(),
	})
	if err != nil {
		t.Fatal(err)
	}

	uc := &fakeUsecase{}
	if err := NewHandlers(uc, nil).HandleGeneration(context.Background(), asynq.NewTask("generate:animation", payload)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if uc.genID != genID {
		t.Errorf("Expected generation %s, got %s", genID, uc.genID)
	}
}

func TestHandleExpireGenerations(t *testing.T) {
	uc := &fakeUsecase{expired: 3}
	h := NewHandlers(uc, nil)
	if err := h.HandleExpireGenerations(context.Background(), asynq.NewTask("generation:expire", nil)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	uc.expireErr = errors.New("db down")
	if err := h.HandleExpireGenerations(context.Background(), asynq.NewTask("generation:expire", nil)); err == nil {
		t.Fatal("Expected the sweep error to be returned")
	}
}

func TestHandleHelloWorld(t *testing.T) {
	uc := &fakeUsecase{}
	h := NewHandlers(uc, nil)
	if err := h.HandleHelloWorld(context.Background(), asynq.NewTask("hello:world", []byte(`{"name":"ada"}`))); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(uc.helloPayload) != `{"name":"ada"}` {
		t.Errorf("Expected payload forwarded, got %s", uc.helloPayload)
	}
}
