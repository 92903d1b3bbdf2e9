package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func getSnapshot(t *testing.T, api *API, key string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.GET("/api/v1/monitor/snapshot", api.MonitorSnapshot)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitor/snapshot", nil)
	if key != "" {
		req.Header.Set("X-Monitoring-Key", key)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestMonitorSnapshotDisabledWithoutKeyConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, _ := newTestAPI(t)

	resp := getSnapshot(t, api, "whatever")
	mustStatus(t, resp.Code, http.StatusServiceUnavailable)
}

func TestMonitorSnapshotRejectsWrongKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, _ := newTestAPI(t)
	api.cfg.MonitoringAPIKey = "monitor-secret"

	mustStatus(t, getSnapshot(t, api, "").Code, http.StatusUnauthorized)
	mustStatus(t, getSnapshot(t, api, "wrong").Code, http.StatusUnauthorized)
}

func TestMonitorSnapshotReportsTableTotals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, _ := newTestAPI(t)
	api.cfg.MonitoringAPIKey = "monitor-secret"

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(34))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(56))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM post_likes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(78))

	resp := getSnapshot(t, api, "monitor-secret")
	expectHTTP200(t, resp.Code)

	out := decodeEnvelope(t, resp.Body.Bytes())
	if int(out["users_total"].(float64)) != 12 {
		t.Fatalf("expected users_total=12, got %#v", out["users_total"])
	}
	if int(out["posts_total"].(float64)) != 34 {
		t.Fatalf("expected posts_total=34, got %#v", out["posts_total"])
	}
	if int(out["comments_total"].(float64)) != 56 {
		t.Fatalf("expected comments_total=56, got %#v", out["comments_total"])
	}
	if int(out["likes_total"].(float64)) != 78 {
		t.Fatalf("expected likes_total=78, got %#v", out["likes_total"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestHealthAndStatusEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, _ := newTestAPI(t)

	router := gin.New()
	router.GET("/health", api.HealthCheck)
	router.GET("/api/status", api.Status)

	for _, target := range []string{"/health", "/api/status"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		expectHTTP200(t, resp.Code)
	}
}
