package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/clipscribe/clipscribe-processing-service/internal/domain/port"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/email"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/ffmpeg"
	miniostorage "github.com/clipscribe/clipscribe-processing-service/internal/infra/minio"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/postgres"
	"github.com/clipscribe/clipscribe-processing-service/internal/infra/rabbitmq"
	"github.com/clipscribe/clipscribe-processing-service/internal/usecase"
	"github.com/clipscribe/clipscribe-processing-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// stubVision replaces the Gemini adapter so the pipeline can run without a
// live credential.
type stubVision struct {
	timed []entity.TimedText
}

func (s *stubVision) ForCredential(_ context.Context, _ string) (port.VisionModel, error) {
	return s, nil
}

func (s *stubVision) TranscribeFrames(_ context.Context, _ []entity.Frame) ([]entity.TimedText, error) {
	return s.timed, nil
}

func (s *stubVision) IsolateText(_ context.Context, frame entity.Frame) (entity.Frame, error) {
	return frame, nil
}

func (s *stubVision) EditImage(_ context.Context, frame entity.Frame, _ string) (entity.Frame, error) {
	return frame, nil
}

func TestProcessOperationEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("sessions"),
		tcpostgres.WithUsername("session_user"),
		tcpostgres.WithPassword("session_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Run migrations
	err = postgres.RunMigrations(ctx, pgConnStr)
	require.NoError(t, err)

	// Setup MinIO storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       minioEndpoint,
		AccessKey:      "minioadmin",
		SecretKey:      "minioadmin",
		UseSSL:         false,
		UploadBucket:   "uploads",
		ArtifactBucket: "artifacts",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	// Upload test video to MinIO
	testVideoPath := filepath.Join("..", "testdata", "test.mp4")
	if _, err := os.Stat(testVideoPath); os.IsNotExist(err) {
		t.Skip("test video not found at tests/testdata/test.mp4 - generate it with: ffmpeg -f lavfi -i testsrc=duration=4:size=320x240:rate=1 -c:v libx264 -pix_fmt yuv420p tests/testdata/test.mp4")
	}

	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	videoKey := "testuser/test.mp4"
	_, err = minioClient.FPutObject(ctx, "uploads", videoKey, testVideoPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	// Setup RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, "clipscribe.session")
	require.NoError(t, err)

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, "session.operations.dlq")

	// Wire the use case with real adapters and the stubbed vision model
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	log, err := logger.New("debug")
	require.NoError(t, err)

	repo := postgres.NewSessionRepository(pool)
	prober := ffmpeg.NewProber()
	sampler := ffmpeg.NewSampler(prober, log)
	vision := &stubVision{timed: []entity.TimedText{
		{TimestampSeconds: 0, Text: "HELLO"},
		{TimestampSeconds: 2, Text: "WORLD"},
	}}
	notifier := email.NewSMTPNotifier("localhost", 1025, "noreply@clipscribe.local", log)

	uc := usecase.NewProcessOperationUseCase(
		repo, storage, prober, sampler, vision,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessOperationConfig{
			TempDir:            t.TempDir(),
			MaxRetries:         3,
			SampleIntervalSecs: 2,
			StaleActiveSecs:    900,
		},
	)

	sessionID := uuid.New()

	// Transcribe the clip end to end
	msg := entity.SessionOperationMessage{
		SessionID: sessionID,
		UserID:    "testuser",
		Op:        entity.OpTranscribe,
		VideoKey:  videoKey,
	}
	rawMsg, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, uc.Execute(ctx, rawMsg))

	sess, err := repo.FindByID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionIdle, sess.Status)
	assert.Greater(t, sess.FrameCount, 0)
	require.NotEmpty(t, sess.TranscriptKey)

	transcriptData, err := storage.DownloadArtifact(ctx, sess.TranscriptKey)
	require.NoError(t, err)
	transcriptText := string(transcriptData)
	assert.True(t, strings.HasPrefix(transcriptText, "00:00 HELLO\n00:02 WORLD\nclip length "), "got %q", transcriptText)

	// Capture a frame with export and verify the artifact lands
	captureMsg := entity.SessionOperationMessage{
		SessionID:        sessionID,
		UserID:           "testuser",
		Op:               entity.OpCaptureFrame,
		VideoKey:         videoKey,
		TimestampSeconds: 1,
		BurnTimestamp:    true,
		AutoExport:       true,
	}
	rawCapture, err := json.Marshal(captureMsg)
	require.NoError(t, err)

	require.NoError(t, uc.Execute(ctx, rawCapture))

	sess, err = repo.FindByID(ctx, sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, sess.CaptureKey)

	captureData, err := storage.DownloadArtifact(ctx, sess.CaptureKey)
	require.NoError(t, err)
	assert.NotEmpty(t, captureData)
}
