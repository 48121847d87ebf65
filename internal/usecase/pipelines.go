package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/metrics"
	"github.com/clipscribe/clipscribe-processing-service/internal/transcript"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func (uc *ProcessOperationUseCase) runPipeline(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, sess.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := ""
	if msg.Op != entity.OpAnnotateTranscript {
		dlStart := time.Now()
		ctxDl, spanDl := tracer.Start(ctx, "download_video")
		videoPath = filepath.Join(workDir, "input.mp4")
		if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
			spanDl.End()
			log.Error("failed to download video", zap.Error(err))
			return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "download_video: "+err.Error(), log)
		}
		spanDl.End()
		metrics.OperationDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())
	}

	var err error
	switch msg.Op {
	case entity.OpLoadVideo:
		err = uc.loadVideo(ctx, sess, msg, rawMsg, videoPath, log)
	case entity.OpTranscribe:
		err = uc.transcribe(ctx, sess, msg, rawMsg, videoPath, log)
	case entity.OpCaptureFrame:
		err = uc.captureFrame(ctx, sess, msg, rawMsg, videoPath, log)
	case entity.OpIsolateText, entity.OpEditImage:
		err = uc.editFrame(ctx, sess, msg, rawMsg, videoPath, log)
	case entity.OpAnnotateTranscript:
		err = uc.annotateTranscript(ctx, sess, msg, rawMsg, log)
	}
	if err != nil {
		return err
	}

	*sess = sess.Complete()
	if err := uc.repo.Update(ctx, sess); err != nil {
		log.Error("failed to update session to IDLE", zap.Error(err))
		return fmt.Errorf("update session completed: %w", err)
	}

	uc.publishStatus(ctx, sess, msg.Op, log)
	log.Info("operation completed",
		zap.Int("frame_count", sess.FrameCount),
		zap.Float64("duration_secs", sess.DurationSecs),
	)
	return nil
}

// loadVideo resets all downstream session state for a new clip and records
// its duration.
func (uc *ProcessOperationUseCase) loadVideo(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	videoPath string,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")
	ctxPr, spanPr := tracer.Start(ctx, "probe_duration")
	duration, err := uc.prober.ProbeDuration(ctxPr, videoPath)
	spanPr.End()
	if err != nil {
		log.Error("failed to probe video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "probe_duration: "+err.Error(), log)
	}

	next, stale := sess.ResetForVideo(msg.VideoKey, duration)
	*sess = next
	for _, key := range stale {
		if err := uc.storage.RemoveArtifact(ctx, key); err != nil {
			log.Warn("failed to remove superseded artifact", zap.String("key", key), zap.Error(err))
		}
	}

	log.Info("video loaded", zap.Float64("duration_secs", duration))
	return nil
}

// transcribe samples the whole clip and asks the model for the on-screen
// text of every frame, then uploads the formatted transcript.
func (uc *ProcessOperationUseCase) transcribe(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	videoPath string,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	ctxPr, spanPr := tracer.Start(ctx, "probe_duration")
	duration, err := uc.prober.ProbeDuration(ctxPr, videoPath)
	spanPr.End()
	if err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "probe_duration: "+err.Error(), log)
	}

	smStart := time.Now()
	ctxSm, spanSm := tracer.Start(ctx, "sample_frames")
	frames, err := uc.sampler.SampleFrames(ctxSm, videoPath, uc.interval, func(percent float64) {
		log.Debug("sampling progress", zap.Float64("percent", percent))
	})
	spanSm.End()
	if err != nil {
		log.Error("frame sampling failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "sample_frames: "+err.Error(), log)
	}
	metrics.OperationDuration.WithLabelValues("sample").Observe(time.Since(smStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(len(frames)))

	*sess = sess.AdvanceTranscribing()
	if err := uc.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("update session to TRANSCRIBING: %w", err)
	}

	model, err := uc.vision.ForCredential(ctx, msg.APIKey)
	if err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "vision_client: "+err.Error(), log)
	}

	mdStart := time.Now()
	ctxMd, spanMd := tracer.Start(ctx, "transcribe_frames")
	raw, err := model.TranscribeFrames(ctxMd, frames)
	spanMd.End()
	metrics.OperationDuration.WithLabelValues("model").Observe(time.Since(mdStart).Seconds())
	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues("transcribe", "error").Inc()
		log.Error("transcription failed", zap.Error(err))
		if errors.Is(err, port.ErrMalformedTranscription) {
			// A bad payload will not get better on retry.
			return uc.handlePermanentFailure(ctx, sess, msg, rawMsg, "transcribe_frames: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "transcribe_frames: "+err.Error(), log)
	}
	metrics.ModelCallsTotal.WithLabelValues("transcribe", "ok").Inc()

	text := transcript.Format(transcript.FromTimedText(raw), duration)
	key := uc.artifactKey(sess, transcript.TranscriptName(msg.VideoKey, duration))
	if err := uc.storeArtifact(ctx, sess, entity.SlotTranscript, key, []byte(text), "text/plain; charset=utf-8", log); err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "upload_transcript: "+err.Error(), log)
	}

	sess.FrameCount = len(frames)
	sess.DurationSecs = duration
	return nil
}

// captureFrame produces a single PNG frame. Persisting it is a separate,
// opt-in step; capture alone never exports.
func (uc *ProcessOperationUseCase) captureFrame(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	videoPath string,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")
	ctxCp, spanCp := tracer.Start(ctx, "capture_frame")
	frame, err := uc.sampler.CaptureFrame(ctxCp, videoPath, msg.TimestampSeconds, msg.BurnTimestamp)
	spanCp.End()
	if err != nil {
		log.Error("frame capture failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "capture_frame: "+err.Error(), log)
	}

	if !msg.AutoExport {
		log.Info("frame captured without export",
			zap.Int("at_second", frame.TimestampSeconds),
			zap.Int("bytes", len(frame.Data)),
		)
		return nil
	}

	key := uc.artifactKey(sess, transcript.CaptureName(msg.VideoKey, msg.TimestampSeconds))
	if err := uc.storeArtifact(ctx, sess, entity.SlotCapture, key, frame.Data, frame.MIMEType, log); err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "upload_capture: "+err.Error(), log)
	}
	return nil
}

// editFrame covers both isolate_text and edit_image: capture one frame,
// send it through the image-bearing model call, store the returned picture.
func (uc *ProcessOperationUseCase) editFrame(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	videoPath string,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	ctxCp, spanCp := tracer.Start(ctx, "capture_frame")
	frame, err := uc.sampler.CaptureFrame(ctxCp, videoPath, msg.TimestampSeconds, msg.BurnTimestamp)
	spanCp.End()
	if err != nil {
		log.Error("frame capture failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "capture_frame: "+err.Error(), log)
	}

	model, err := uc.vision.ForCredential(ctx, msg.APIKey)
	if err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "vision_client: "+err.Error(), log)
	}

	kind := "isolate_text"
	mdStart := time.Now()
	ctxMd, spanMd := tracer.Start(ctx, "edit_image")
	var edited entity.Frame
	if msg.Op == entity.OpIsolateText {
		edited, err = model.IsolateText(ctxMd, frame)
	} else {
		kind = "edit_image"
		instruction := msg.Prompt
		if msg.Preset != "" {
			preset, ok := presetPrompt(msg.Preset)
			if !ok {
				spanMd.End()
				return uc.handlePermanentFailure(ctx, sess, msg, rawMsg, "unknown preset: "+msg.Preset)
			}
			instruction = preset
		}
		edited, err = model.EditImage(ctxMd, frame, instruction)
	}
	spanMd.End()
	metrics.OperationDuration.WithLabelValues("model").Observe(time.Since(mdStart).Seconds())

	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues(kind, "error").Inc()
		log.Error("image edit failed", zap.Error(err))
		if errors.Is(err, port.ErrNoImageInResponse) {
			// The model declined; retrying the same frame will not help.
			return uc.handlePermanentFailure(ctx, sess, msg, rawMsg, kind+": "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, kind+": "+err.Error(), log)
	}
	metrics.ModelCallsTotal.WithLabelValues(kind, "ok").Inc()

	key := uc.artifactKey(sess, transcript.EditedName(msg.VideoKey, msg.TimestampSeconds))
	if err := uc.storeArtifact(ctx, sess, entity.SlotEdited, key, edited.Data, edited.MIMEType, log); err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "upload_edited: "+err.Error(), log)
	}
	return nil
}

// annotateTranscript inserts an mm:ss token into the stored transcript at
// the message's cursor offset.
func (uc *ProcessOperationUseCase) annotateTranscript(
	ctx context.Context,
	sess *entity.Session,
	msg entity.SessionOperationMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	if sess.TranscriptKey == "" {
		// Nothing to annotate yet; guard, not an error.
		log.Debug("no transcript on session, skipping annotation")
		return nil
	}

	data, err := uc.storage.DownloadArtifact(ctx, sess.TranscriptKey)
	if err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "download_transcript: "+err.Error(), log)
	}

	updated := transcript.InsertTimestamp(string(data), msg.CursorOffset, msg.SelectionLength, msg.AnnotateAtSecond)
	if err := uc.storeArtifact(ctx, sess, entity.SlotTranscript, sess.TranscriptKey, []byte(updated), "text/plain; charset=utf-8", log); err != nil {
		return uc.handleRetryableFailure(ctx, sess, msg, rawMsg, "upload_transcript: "+err.Error(), log)
	}
	return nil
}

func (uc *ProcessOperationUseCase) artifactKey(sess *entity.Session, name string) string {
	return fmt.Sprintf("%s/%s/%s", sess.UserID, sess.ID.String(), name)
}

// storeArtifact uploads into a session slot and releases the superseded
// object, keeping at most one live artifact per slot.
func (uc *ProcessOperationUseCase) storeArtifact(
	ctx context.Context,
	sess *entity.Session,
	slot entity.ArtifactSlot,
	key string,
	data []byte,
	contentType string,
	log *zap.Logger,
) error {
	upStart := time.Now()
	if err := uc.storage.UploadArtifact(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return err
	}
	metrics.OperationDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	next, prev := sess.SetArtifact(slot, key)
	*sess = next
	if prev != "" {
		if err := uc.storage.RemoveArtifact(ctx, prev); err != nil {
			log.Warn("failed to remove superseded artifact", zap.String("key", prev), zap.Error(err))
		}
	}
	return nil
}
