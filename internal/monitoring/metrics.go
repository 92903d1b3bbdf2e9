package monitoring

import (
	"database/sql"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Service holds the monitoring state for one server instance: the start
// time plus request and upload counters. It is constructed in main and
// passed down; nothing monitoring-related lives in package globals.
type Service struct {
	db        *sql.DB
	startedAt time.Time

	activeRequests atomic.Int64
	totalRequests  atomic.Uint64

	uploadsTotal         atomic.Uint64
	uploadsFailed        atomic.Uint64
	uploadBytesTotal     atomic.Int64
	uploadDurationMicros atomic.Uint64
}

type Snapshot struct {
	TimestampUTC       string `json:"timestamp_utc"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	HTTPActiveRequests int64  `json:"http_active_requests"`
	HTTPTotalRequests  uint64 `json:"http_total_requests"`

	MediaUploadsTotal       uint64  `json:"media_uploads_total"`
	MediaUploadsFailed      uint64  `json:"media_uploads_failed"`
	MediaUploadBytesTotal   int64   `json:"media_upload_bytes_total"`
	MediaUploadAvgLatencyMS float64 `json:"media_upload_avg_latency_ms"`

	DBOpenConnections  int   `json:"db_open_connections"`
	DBInUseConnections int   `json:"db_in_use_connections"`
	DBWaitCount        int64 `json:"db_wait_count"`

	Goroutines         int    `json:"goroutines"`
	GoMemoryAllocBytes uint64 `json:"go_memory_alloc_bytes"`
	GoMemorySysBytes   uint64 `json:"go_memory_sys_bytes"`
	GoHeapInUseBytes   uint64 `json:"go_heap_in_use_bytes"`
	GoGCCount          uint32 `json:"go_gc_count"`

	UsersTotal    int64 `json:"users_total"`
	PostsTotal    int64 `json:"posts_total"`
	CommentsTotal int64 `json:"comments_total"`
	LikesTotal    int64 `json:"likes_total"`
}

func NewService(db *sql.DB, startedAt time.Time) *Service {
	return &Service{db: db, startedAt: startedAt}
}

// RequestMetrics counts in-flight and total HTTP requests for Snapshot.
func (s *Service) RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.activeRequests.Add(1)
		s.totalRequests.Add(1)
		defer s.activeRequests.Add(-1)
		c.Next()
	}
}

// Snapshot collects counters, pool stats and table totals. Count queries
// that fail leave the corresponding field at zero rather than failing the
// whole snapshot.
func (s *Service) Snapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := Snapshot{
		TimestampUTC:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		HTTPActiveRequests: s.activeRequests.Load(),
		HTTPTotalRequests:  s.totalRequests.Load(),

		MediaUploadsTotal:       s.uploadsTotal.Load(),
		MediaUploadsFailed:      s.uploadsFailed.Load(),
		MediaUploadBytesTotal:   s.uploadBytesTotal.Load(),
		MediaUploadAvgLatencyMS: s.uploadAvgLatencyMS(),

		Goroutines:         runtime.NumGoroutine(),
		GoMemoryAllocBytes: memStats.Alloc,
		GoMemorySysBytes:   memStats.Sys,
		GoHeapInUseBytes:   memStats.HeapInuse,
		GoGCCount:          memStats.NumGC,
	}

	if s.db != nil {
		poolStats := s.db.Stats()
		snapshot.DBOpenConnections = poolStats.OpenConnections
		snapshot.DBInUseConnections = poolStats.InUse
		snapshot.DBWaitCount = poolStats.WaitCount

		snapshot.UsersTotal = s.countRows(`SELECT COUNT(*) FROM users`)
		snapshot.PostsTotal = s.countRows(`SELECT COUNT(*) FROM posts`)
		snapshot.CommentsTotal = s.countRows(`SELECT COUNT(*) FROM comments`)
		snapshot.LikesTotal = s.countRows(`SELECT COUNT(*) FROM post_likes`)
	}

	return snapshot
}

func (s *Service) countRows(query string) int64 {
	var count int64
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return 0
	}
	return count
}
