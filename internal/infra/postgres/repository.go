package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, status, video_key, duration_secs,
			capture_key, edited_key, transcript_key, frame_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.UserID, string(s.Status), s.VideoKey, s.DurationSecs,
		s.CaptureKey, s.EditedKey, s.TranscriptKey, s.FrameCount,
		s.Attempt, s.MaxAttempts, s.ErrorMessage,
		s.CreatedAt, s.UpdatedAt, s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, s *entity.Session) error {
	query := `
		UPDATE sessions SET
			status=$2, video_key=$3, duration_secs=$4,
			capture_key=$5, edited_key=$6, transcript_key=$7, frame_count=$8,
			attempt=$9, error_message=$10, updated_at=$11, completed_at=$12
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		s.ID, string(s.Status), s.VideoKey, s.DurationSecs,
		s.CaptureKey, s.EditedKey, s.TranscriptKey, s.FrameCount,
		s.Attempt, s.ErrorMessage, s.UpdatedAt, s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// MarkActive writes the active transition only when no other worker holds
// the session. The status condition makes the busy gate atomic under the
// worker pool: of N concurrent claims exactly one updates a row. An active
// row older than staleBefore is treated as abandoned and claimable.
func (r *SessionRepository) MarkActive(ctx context.Context, s *entity.Session, staleBefore time.Time) error {
	query := `
		UPDATE sessions SET
			status=$2, video_key=$3, duration_secs=$4,
			capture_key=$5, edited_key=$6, transcript_key=$7, frame_count=$8,
			attempt=$9, error_message=$10, updated_at=$11, completed_at=$12
		WHERE id=$1
		  AND (status NOT IN ('SAMPLING','TRANSCRIBING','EDITING_IMAGE') OR updated_at < $13)`

	ct, err := r.pool.Exec(ctx, query,
		s.ID, string(s.Status), s.VideoKey, s.DurationSecs,
		s.CaptureKey, s.EditedKey, s.TranscriptKey, s.FrameCount,
		s.Attempt, s.ErrorMessage, s.UpdatedAt, s.CompletedAt,
		staleBefore,
	)
	if err != nil {
		return fmt.Errorf("mark session active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return entity.ErrSessionBusy
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	query := `
		SELECT id, user_id, status, video_key, duration_secs,
			capture_key, edited_key, transcript_key, frame_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM sessions WHERE id=$1`

	s := &entity.Session{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &status, &s.VideoKey, &s.DurationSecs,
		&s.CaptureKey, &s.EditedKey, &s.TranscriptKey, &s.FrameCount,
		&s.Attempt, &s.MaxAttempts, &s.ErrorMessage,
		&s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	s.Status = entity.SessionStatus(status)
	return s, nil
}
