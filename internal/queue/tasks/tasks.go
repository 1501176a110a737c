// Package tasks holds the task payloads shared by the queue client and the
// worker handlers.
package tasks

import (
	"fmt"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
)

// GenerationPayload is the body of generate:* tasks.
type GenerationPayload struct {
	GenerationID uuid.UUID              `json:"generation_id"`
	Kind         usecase.GenerationKind `json:"kind"`
	EntityID     uuid.UUID              `json:"entity_id"`
}

func GenerationType(kind usecase.GenerationKind) (string, error) {
	switch kind {
	case usecase.KindAvatar:
		return config.TASK_GENERATE_AVATAR, nil
	case usecase.KindAnimation:
		return config.TASK_GENERATE_ANIMATION, nil
	}
	return "", fmt.Errorf("no task type for generation kind %q", kind)
}
