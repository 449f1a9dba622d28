package progress

import (
	"fmt"
	"time"

	"github.com/abdabkim/webdevacademy/internal/domain"
)

// MaxLevel level of a fully completed course
const MaxLevel = 10

// ComputeLevel floor(100 * completed / total / 10), clamped to [0, MaxLevel]
func ComputeLevel(completed, total int) int {
	if total <= 0 {
		return 0
	}
	level := completed * MaxLevel / total
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// NewProgressRecord fresh record with nothing completed
func NewProgressRecord(userID, courseID, courseName string, totalLessons int, now time.Time) (*ProgressRecord, error) {
	if totalLessons <= 0 {
		return nil, fmt.Errorf("%w: course %s must have lessons, got %d", domain.ErrInvariantViolation, courseID, totalLessons)
	}
	return &ProgressRecord{
		UserID:           userID,
		CourseID:         courseID,
		CourseName:       courseName,
		CompletedLessons: []string{},
		TotalLessons:     totalLessons,
		StartedAt:        now,
		LastAccessed:     now,
	}, nil
}

// HasCompleted check if lessonID is already in the completed set
func (p *ProgressRecord) HasCompleted(lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Clone deep copy
func (p *ProgressRecord) Clone() *ProgressRecord {
	c := *p
	c.CompletedLessons = append([]string{}, p.CompletedLessons...)
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// Validate check the record invariants
func (p *ProgressRecord) Validate() error {
	n := len(p.CompletedLessons)
	switch {
	case p.TotalLessons <= 0:
		return fmt.Errorf("%w: %s has %d total lessons", domain.ErrInvariantViolation, p.CourseID, p.TotalLessons)
	case n > p.TotalLessons:
		return fmt.Errorf("%w: %s has %d of %d lessons completed", domain.ErrInvariantViolation, p.CourseID, n, p.TotalLessons)
	case p.Level != ComputeLevel(n, p.TotalLessons):
		return fmt.Errorf("%w: %s level %d does not match %d/%d", domain.ErrInvariantViolation, p.CourseID, p.Level, n, p.TotalLessons)
	case p.IsCompleted != (n >= p.TotalLessons):
		return fmt.Errorf("%w: %s completion flag does not match %d/%d", domain.ErrInvariantViolation, p.CourseID, n, p.TotalLessons)
	case p.IsCompleted != (p.CompletedAt != nil):
		return fmt.Errorf("%w: %s completion time does not match completion flag", domain.ErrInvariantViolation, p.CourseID)
	}
	seen := make(map[string]bool, n)
	for _, id := range p.CompletedLessons {
		if seen[id] {
			return fmt.Errorf("%w: %s lists lesson %s twice", domain.ErrInvariantViolation, p.CourseID, id)
		}
		seen[id] = true
	}
	return nil
}

// ApplyCompletion returns a copy of p with lessonID completed at now. p itself is not
// modified. changed is false when the lesson was already completed, in which case p is
// returned as is.
func ApplyCompletion(p *ProgressRecord, lessonID string, now time.Time) (next *ProgressRecord, changed bool, err error) {
	if p.HasCompleted(lessonID) {
		return p, false, nil
	}
	if len(p.CompletedLessons) >= p.TotalLessons {
		return nil, false, fmt.Errorf("%w: %s already has all %d lessons completed", domain.ErrInvariantViolation, p.CourseID, p.TotalLessons)
	}

	next = p.Clone()
	next.CompletedLessons = append(next.CompletedLessons, lessonID)
	n := len(next.CompletedLessons)
	next.Level = ComputeLevel(n, next.TotalLessons)
	next.IsCompleted = n >= next.TotalLessons
	if next.IsCompleted && next.CompletedAt == nil {
		at := now
		next.CompletedAt = &at
	}
	next.LastAccessed = now
	if err := next.Validate(); err != nil {
		return nil, false, err
	}
	return next, true, nil
}
