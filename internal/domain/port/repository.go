package port

import (
	"context"
	"time"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// MarkActive persists the session's transition into an active status.
	// The write is conditional on the stored row not already being active,
	// so concurrent deliveries for one session resolve to a single winner;
	// the losers get entity.ErrSessionBusy. A stored active row last
	// updated before staleBefore belongs to a worker that is gone and may
	// be claimed anyway.
	MarkActive(ctx context.Context, session *entity.Session, staleBefore time.Time) error
}
