package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	infra "github.com/abdabkim/webdevacademy/internal/infrastructure"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/uuid"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/abdabkim/webdevacademy/internal/review"
	"github.com/abdabkim/webdevacademy/internal/streak"
	"github.com/abdabkim/webdevacademy/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

type server struct {
	t     *testing.T
	app   *echo.Echo
	kv    *driver.MemoryKV
	clock *clock.FixedClock
	jwt   *auth.JWTUtil
}

func newServer(t *testing.T) *server {
	t.Helper()
	conn := testutil.DB(t)
	kv := driver.NewMemoryKV()
	clk := testutil.Clock(2024, 3, 10, 9)
	m := metrics.New()
	cat, err := catalog.Default()
	require.NoError(t, err)

	option := new(infra.AppConfig)
	option.Env = infra.EnvProduction
	option.RequestTimeout = 5 * time.Second
	option.Security.JWTMethod = "HS256"
	option.Security.JWTSecret = testSecret
	option.Security.TokenName = "token"
	option.DevOP.Metrics = true

	streaks := streak.NewStreakUseCase(streak.NewStreakRepository(conn), clk, m)
	app := NewServer(option, &Dependencies{
		Conn:            conn,
		KV:              kv,
		Catalog:         cat,
		ProgressUseCase: progress.NewProgressUseCase(progress.NewProgressRepository(conn), streaks, clk, m),
		StreakUseCase:   streaks,
		ReviewUseCase:   review.NewReviewUseCase(review.NewFlashCardRepository(conn), &uuid.SequenceGenerator{Prefix: "card"}, clk, m),
		Metrics:         m,
		Logger:          zaptest.NewLogger(t),
	})
	return &server{t, app, kv, clk, auth.NewJWTUtil("HS256", testSecret, "token")}
}

func (s *server) do(method, path, uid, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if uid != "" {
		token, err := s.jwt.Issue(uid, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", "").Code)
}

func TestRequiresToken(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/courses", "", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLearningFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/v1/courses", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []struct {
		ID           string `json:"id"`
		TotalLessons int    `json:"total_lessons"`
		Unlocked     bool   `json:"unlocked"`
	}
	decode(t, rec, &courses)
	require.Len(t, courses, 6)
	assert.Equal(t, "html", courses[0].ID)
	assert.Equal(t, 45, courses[0].TotalLessons)
	assert.True(t, courses[0].Unlocked)
	assert.False(t, courses[1].Unlocked)

	rec = s.do(http.MethodPost, "/api/v1/courses/html/start", "u1", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", "u1", `{"time_spent":12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var record progress.ProgressRecord
	decode(t, rec, &record)
	assert.Equal(t, []string{"html-1"}, record.CompletedLessons)
	assert.Equal(t, 45, record.TotalLessons)

	// completing again changes nothing
	rec = s.do(http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", "u1", `{"time_spent":12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var again progress.ProgressRecord
	decode(t, rec, &again)
	assert.Equal(t, record.CompletedLessons, again.CompletedLessons)

	rec = s.do(http.MethodGet, "/api/v1/progress/html", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		CourseID    string                       `json:"course_id"`
		Completions []*progress.LessonCompletion `json:"completions"`
	}
	decode(t, rec, &view)
	assert.Equal(t, "html", view.CourseID)
	require.Len(t, view.Completions, 1)
	assert.Equal(t, 12, view.Completions[0].TimeSpent)

	rec = s.do(http.MethodGet, "/api/v1/progress/stats", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats progress.DashboardStats
	decode(t, rec, &stats)
	assert.Equal(t, progress.DashboardStats{CoursesStarted: 1, LessonsCompleted: 1, LearningStreak: 1}, stats)

	rec = s.do(http.MethodGet, "/api/v1/streak", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st struct {
		CurrentStreak int      `json:"current_streak"`
		ActiveDates   []string `json:"active_dates"`
	}
	decode(t, rec, &st)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, []string{"2024-03-10"}, st.ActiveDates)

	rec = s.do(http.MethodGet, "/api/v1/streak/activity", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2024-03-10"`)

	rec = s.do(http.MethodGet, "/api/v1/courses/html/lessons", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lessons struct {
		Started bool `json:"started"`
		Lessons []struct {
			ID        string `json:"id"`
			Completed bool   `json:"completed"`
			Unlocked  bool   `json:"unlocked"`
		} `json:"lessons"`
	}
	decode(t, rec, &lessons)
	assert.True(t, lessons.Started)
	require.Len(t, lessons.Lessons, 45)
	assert.True(t, lessons.Lessons[0].Completed)
	assert.True(t, lessons.Lessons[1].Unlocked)
	assert.False(t, lessons.Lessons[2].Unlocked)

	// progress is per user
	rec = s.do(http.MethodGet, "/api/v1/progress", "u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/courses/html/start", "u1", "").Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"not started", http.MethodPost, "/api/v1/courses/css/lessons/css-1/complete", `{"time_spent":1}`, http.StatusConflict},
		{"already started", http.MethodPost, "/api/v1/courses/html/start", "", http.StatusConflict},
		{"unknown course", http.MethodPost, "/api/v1/courses/cobol/start", "", http.StatusNotFound},
		{"unknown lesson", http.MethodPost, "/api/v1/courses/html/lessons/html-46/complete", `{"time_spent":1}`, http.StatusNotFound},
		{"foreign lesson", http.MethodPost, "/api/v1/courses/html/lessons/css-1/complete", `{"time_spent":1}`, http.StatusNotFound},
		{"negative time", http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", `{"time_spent":-3}`, http.StatusBadRequest},
		{"bad course id", http.MethodGet, "/api/v1/progress/HTML!", "", http.StatusBadRequest},
		{"no progress", http.MethodGet, "/api/v1/progress/css", "", http.StatusConflict},
		{"unknown card", http.MethodPost, "/api/v1/cards/nope/review", `{"response":"easy"}`, http.StatusNotFound},
		{"bad response", http.MethodPost, "/api/v1/cards/nope/review", `{"response":"trivial"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, "u1", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			var body struct {
				Code  int    `json:"code"`
				Title string `json:"title"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, http.StatusText(tt.code), body.Title)
		})
	}

	rec := s.do(http.MethodPost, "/api/v1/courses/html/start", "u1", `{"allow_reset":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestValidationErrorListsParams(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/api/v1/cards", "u1", `{"question":"What is HTML?"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		InvalidParams []struct {
			Domain string `json:"domain"`
		} `json:"invalid_params"`
	}
	decode(t, rec, &body)
	require.Len(t, body.InvalidParams, 1)
	assert.Equal(t, "answer", body.InvalidParams[0].Domain)
}

func TestCompletionLock(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/courses/html/start", "u1", "").Code)

	ok, err := s.kv.SetNX(CompletionLockPrefix+"u1", "other-request", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	rec := s.do(http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", "u1", `{"time_spent":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other users are not affected
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/courses/html/start", "u2", "").Code)
	rec = s.do(http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", "u2", `{"time_spent":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.kv.Del(CompletionLockPrefix+"u1"))
	rec = s.do(http.MethodPost, "/api/v1/courses/html/lessons/html-1/complete", "u1", `{"time_spent":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the lock is released after the request
	exists, err := s.kv.Exists(CompletionLockPrefix + "u1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFlashcards(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodGet, "/api/v1/cards/due", "u1", "").Code)

	rec := s.do(http.MethodPost, "/api/v1/cards", "u1", `{"question":"What is a closure?","answer":"A function with its environment"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var card review.FlashCard
	decode(t, rec, &card)
	assert.Equal(t, "card-1", card.ID)

	rec = s.do(http.MethodGet, "/api/v1/cards/due", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/cards/card-1/review", "u1", `{"response":"hard"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &card)
	assert.Equal(t, review.Hard, card.Difficulty)
	assert.True(t, s.clock.Now().Add(24*time.Hour).Equal(card.NextReview), card.NextReview)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodGet, "/api/v1/cards/due", "u1", "").Code)
	s.clock.Advance(24 * time.Hour)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/cards/due", "u1", "").Code)

	// cards are private
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/v1/cards/card-1/review", "u2", `{"response":"easy"}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/courses/html/start", "u1", "").Code)

	rec := s.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `webdevacademy_courses_started_total{course="html"} 1`)
	assert.Contains(t, rec.Body.String(), `webdevacademy_http_request_duration_seconds_count{method="POST",route="/api/v1/courses/:course/start",status="201"} 1`)
}
