package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Mayank9056-MM/social-post-application/internal/config"
	"github.com/Mayank9056-MM/social-post-application/internal/logging"
	"github.com/Mayank9056-MM/social-post-application/internal/media"
	"github.com/Mayank9056-MM/social-post-application/internal/middleware"
	"github.com/Mayank9056-MM/social-post-application/internal/monitoring"
	"github.com/Mayank9056-MM/social-post-application/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

const testJWTSecret = "snapfeed_test_jwt_secret_key_1234567890"

// stubMediaStore records uploads and deletes instead of talking to S3.
type stubMediaStore struct {
	uploadErr error
	deleteErr error

	uploads     int
	lastUpload  media.UploadResult
	deletedKeys []string
}

func (s *stubMediaStore) Upload(_ context.Context, _ io.Reader, _ int64, _, ext string) (media.UploadResult, error) {
	if s.uploadErr != nil {
		return media.UploadResult{}, s.uploadErr
	}
	s.uploads++
	result := media.UploadResult{
		Key: fmt.Sprintf("posts/test/%d%s", s.uploads, ext),
		URL: fmt.Sprintf("https://media.test/posts/test/%d%s", s.uploads, ext),
	}
	s.lastUpload = result
	return result, nil
}

func (s *stubMediaStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedKeys = append(s.deletedKeys, key)
	return nil
}

func newTestAPI(t *testing.T) (*API, sqlmock.Sqlmock, *stubMediaStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mediaStore := &stubMediaStore{}
	cfg := &config.Config{
		Environment:    "test",
		JWTSecret:      testJWTSecret,
		AccessTokenTTL: time.Hour,
		MaxUploadBytes: 10 * 1024 * 1024,
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	tokens := utils.NewTokenManager(testJWTSecret, time.Hour)
	monitor := monitoring.NewService(db, time.Now())

	return New(db, mediaStore, tokens, log, monitor, cfg), mock, mediaStore
}

func withTestUserID(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetUserID(c, userID)
		c.Next()
	}
}

func mustStatus(t *testing.T, actual int, expected int) {
	t.Helper()
	if actual != expected {
		t.Fatalf("expected status %d, got %d", expected, actual)
	}
}

func expectHTTP200(t *testing.T, status int) {
	t.Helper()
	mustStatus(t, status, http.StatusOK)
}

// expectLoadPost queues the three queries loadPost runs for the given post.
func expectLoadPost(mock sqlmock.Sqlmock, postID, ownerID int, likes []int, comments []string) {
	now := time.Now()

	mock.
		ExpectQuery(`SELECT p.id, p.image_url, p.created_at, p.updated_at`).
		WithArgs(postID).
		WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "image_url", "created_at", "updated_at",
				"owner_id", "username", "email", "owner_created_at",
			}).AddRow(postID, "https://media.test/posts/test/1.png", now, now,
				ownerID, "demo_user", "user@example.com", now),
		)

	likeRows := sqlmock.NewRows([]string{"user_id"})
	for _, id := range likes {
		likeRows.AddRow(id)
	}
	mock.
		ExpectQuery(`SELECT user_id FROM post_likes`).
		WithArgs(postID).
		WillReturnRows(likeRows)

	commentRows := sqlmock.NewRows([]string{"id", "username", "content", "created_at"})
	for i, content := range comments {
		commentRows.AddRow(i+1, "demo_user", content, now)
	}
	mock.
		ExpectQuery(`SELECT id, username, content, created_at FROM comments`).
		WithArgs(postID).
		WillReturnRows(commentRows)
}

func decodeEnvelope(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	return out
}

func envelopeData(t *testing.T, body []byte) map[string]any {
	t.Helper()
	out := decodeEnvelope(t, body)
	data, ok := out["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %#v", out["data"])
	}
	return data
}
