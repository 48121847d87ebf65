package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// errAborted marks a failure that was already recorded and routed (session
// failed, DLQ published); the message must be acked without completing the
// session.
var errAborted = errors.New("operation aborted")

// ProcessOperationUseCase drives one session operation from queue message to
// published status. Per session, at most one operation runs at a time; a
// message hitting a busy session is acknowledged and dropped.
type ProcessOperationUseCase struct {
	repo      port.SessionRepository
	storage   port.ArtifactStorage
	prober    port.MetadataProber
	sampler   port.FrameSampler
	vision    port.VisionFactory
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger     *zap.Logger
	tempDir    string
	maxRetry   int
	interval   int
	staleAfter time.Duration
}

type ProcessOperationConfig struct {
	TempDir            string
	MaxRetries         int
	SampleIntervalSecs int

	// StaleActiveSecs bounds how long a persisted active status is
	// honored. Past it the session counts as abandoned by a dead worker
	// and the next delivery may claim it. Zero disables reclaiming.
	StaleActiveSecs int
}

func NewProcessOperationUseCase(
	repo port.SessionRepository,
	storage port.ArtifactStorage,
	prober port.MetadataProber,
	sampler port.FrameSampler,
	vision port.VisionFactory,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessOperationConfig,
) *ProcessOperationUseCase {
	return &ProcessOperationUseCase{
		repo:      repo,
		storage:   storage,
		prober:    prober,
		sampler:   sampler,
		vision:    vision,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:     logger,
		tempDir:    cfg.TempDir,
		maxRetry:   cfg.MaxRetries,
		interval:   cfg.SampleIntervalSecs,
		staleAfter: time.Duration(cfg.StaleActiveSecs) * time.Second,
	}
}

func (uc *ProcessOperationUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessOperationUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.SessionOperationMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("session.id", msg.SessionID.String()),
		attribute.String("session.op", string(msg.Op)),
		attribute.String("session.video_key", msg.VideoKey),
	)

	log := uc.logger.With(
		zap.String("session_id", msg.SessionID.String()),
		zap.String("op", string(msg.Op)),
		zap.String("video_key", msg.VideoKey),
	)

	if reason, ok := uc.guardMessage(msg); !ok {
		// User-input problems are not errors: drop the message quietly.
		log.Debug("dropping message on input guard", zap.String("reason", reason))
		metrics.OperationsTotal.WithLabelValues(string(msg.Op), "dropped").Inc()
		return nil
	}

	sess, err := uc.repo.FindByID(ctx, msg.SessionID)
	if err != nil {
		sess = entity.NewSession(msg.UserID, msg.VideoKey, uc.maxRetry)
		sess.ID = msg.SessionID
		if err := uc.repo.Create(ctx, sess); err != nil {
			log.Error("failed to create session record", zap.Error(err))
			return fmt.Errorf("create session: %w", err)
		}
	}

	if !sess.CanRetry() {
		log.Warn("session exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, sess, msg, rawMsg, "max retries exceeded")
		return nil
	}

	if sess.AbandonedSince(uc.staleAfter) {
		// The worker that held this session died mid-operation; the
		// persisted active status must not strand the session forever.
		log.Warn("reclaiming session abandoned by lost worker",
			zap.String("status", string(sess.Status)),
			zap.Time("updated_at", sess.UpdatedAt),
		)
		*sess = sess.Fail("reclaimed after worker loss")
	}

	active, err := sess.Begin(msg.Op)
	if errors.Is(err, entity.ErrSessionBusy) {
		// The busy guard: a second trigger while one operation is pending
		// is a no-op, no duplicate model calls.
		log.Info("session busy, dropping operation", zap.String("status", string(sess.Status)))
		metrics.BusyRejectionsTotal.Inc()
		metrics.OperationsTotal.WithLabelValues(string(msg.Op), "dropped").Inc()
		return nil
	}
	if err != nil {
		_ = uc.handlePermanentFailure(ctx, sess, msg, rawMsg, "begin: "+err.Error())
		return nil
	}
	*sess = active

	// The claim is decided in storage, not here: the conditional write
	// lets exactly one of N concurrent deliveries win the session.
	if err := uc.repo.MarkActive(ctx, sess, uc.staleCutoff()); err != nil {
		if errors.Is(err, entity.ErrSessionBusy) {
			log.Info("session claimed by another worker, dropping operation")
			metrics.BusyRejectionsTotal.Inc()
			metrics.OperationsTotal.WithLabelValues(string(msg.Op), "dropped").Inc()
			return nil
		}
		log.Error("failed to claim session", zap.Error(err))
		return fmt.Errorf("claim session: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, sess, msg, rawMsg, log); err != nil {
		if errors.Is(err, errAborted) {
			return nil
		}
		return err
	}

	metrics.OperationsTotal.WithLabelValues(string(msg.Op), "completed").Inc()
	metrics.OperationDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

// staleCutoff is the instant before which a stored active status no longer
// blocks a claim. The zero time disables reclaiming.
func (uc *ProcessOperationUseCase) staleCutoff() time.Time {
	if uc.staleAfter <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-uc.staleAfter)
}

// guardMessage applies the silent input guards: missing parameters make the
// message a no-op, not a failure.
func (uc *ProcessOperationUseCase) guardMessage(msg entity.SessionOperationMessage) (string, bool) {
	switch msg.Op {
	case entity.OpLoadVideo, entity.OpTranscribe, entity.OpCaptureFrame, entity.OpIsolateText:
		if msg.VideoKey == "" {
			return "no video selected", false
		}
	case entity.OpEditImage:
		if msg.VideoKey == "" {
			return "no video selected", false
		}
		if strings.TrimSpace(msg.Prompt) == "" && msg.Preset == "" {
			return "empty edit prompt", false
		}
	case entity.OpAnnotateTranscript:
		// Transcript presence is checked against the session record later.
	default:
		return "unknown operation", false
	}
	return "", true
}

func (uc *ProcessOperationUseCase) handleRetryableFailure(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	*sess = sess.Fail(errMsg)
	_ = uc.repo.Update(ctx, sess)

	if !sess.CanRetry() {
		return uc.handlePermanentFailure(ctx, sess, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(sess.Attempt)).Inc()
	uc.publishStatus(ctx, sess, msg.Op, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", sess.Attempt, sess.MaxAttempts, errMsg)
}

func (uc *ProcessOperationUseCase) handlePermanentFailure(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	errMsg string,
) error {
	*sess = sess.Fail(errMsg)
	_ = uc.repo.Update(ctx, sess)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, sess, msg.Op, uc.logger)

	metrics.OperationsTotal.WithLabelValues(string(msg.Op), "dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, sess.ID.String(), msg.VideoKey, errMsg)
	}

	return errAborted
}

func (uc *ProcessOperationUseCase) publishStatus(ctx context.Context, sess *entity.Session, op entity.Operation, log *zap.Logger) {
	statusMsg := entity.SessionStatusMessage{
		SessionID:     sess.ID,
		UserID:        sess.UserID,
		Op:            op,
		Status:        sess.Status,
		VideoKey:      sess.VideoKey,
		CaptureKey:    sess.CaptureKey,
		EditedKey:     sess.EditedKey,
		TranscriptKey: sess.TranscriptKey,
		FrameCount:    sess.FrameCount,
		Duration:      sess.DurationSecs,
		ErrorMessage:  sess.ErrorMessage,
		Attempt:       sess.Attempt,
		MaxAttempts:   sess.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
