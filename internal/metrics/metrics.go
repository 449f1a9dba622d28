package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webdevacademy"

// Metrics application collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	coursesStarted   *prometheus.CounterVec
	coursesCompleted *prometheus.CounterVec
	lessonsCompleted *prometheus.CounterVec
	streakRecomputes *prometheus.CounterVec
	cardsReviewed    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New create collectors on a fresh registry, along with go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		coursesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courses_started_total",
			Help:      "Courses started (or reset) by learners",
		}, []string{"course"}),
		coursesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courses_completed_total",
			Help:      "Courses whose last lesson was completed",
		}, []string{"course"}),
		lessonsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lessons_completed_total",
			Help:      "First-time lesson completions",
		}, []string{"course"}),
		streakRecomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_recomputes_total",
			Help:      "Streak recomputations by outcome",
		}, []string{"outcome"}),
		cardsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flashcards_reviewed_total",
			Help:      "Flashcard reviews by response",
		}, []string{"response"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.coursesStarted,
		m.coursesCompleted,
		m.lessonsCompleted,
		m.streakRecomputes,
		m.cardsReviewed,
		m.requestDuration,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposition endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CourseStarted .
func (m *Metrics) CourseStarted(courseID string) {
	if m == nil {
		return
	}
	m.coursesStarted.WithLabelValues(courseID).Inc()
}

// CourseCompleted .
func (m *Metrics) CourseCompleted(courseID string) {
	if m == nil {
		return
	}
	m.coursesCompleted.WithLabelValues(courseID).Inc()
}

// LessonCompleted .
func (m *Metrics) LessonCompleted(courseID string) {
	if m == nil {
		return
	}
	m.lessonsCompleted.WithLabelValues(courseID).Inc()
}

// StreakRecomputed count a recompute, failed when err is not nil
func (m *Metrics) StreakRecomputed(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.streakRecomputes.WithLabelValues(outcome).Inc()
}

// CardReviewed .
func (m *Metrics) CardReviewed(response string) {
	if m == nil {
		return
	}
	m.cardsReviewed.WithLabelValues(response).Inc()
}

// ObserveRequest record the latency of one HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
