// Package gate derives course and lesson lock state from a user's progress.
// Nothing here is persisted, callers evaluate it again on every read.
package gate

import (
	"github.com/abdabkim/webdevacademy/internal/catalog"
	"github.com/abdabkim/webdevacademy/internal/progress"
)

// Link one course of the prerequisite chain
type Link struct {
	CourseID     string
	TotalLessons int
}

// Chain courses in unlock order, each one requiring the previous to be completed
type Chain []Link

// FromCatalog chain in catalog order
func FromCatalog(cat *catalog.Catalog) Chain {
	courses := cat.Courses()
	chain := make(Chain, len(courses))
	for i, cd := range courses {
		chain[i] = Link{CourseID: cd.ID, TotalLessons: cd.TotalLessons()}
	}
	return chain
}

func (c Chain) indexOf(courseID string) int {
	for i, l := range c {
		if l.CourseID == courseID {
			return i
		}
	}
	return -1
}

// Finished check if the user completed every lesson of l. A missing record counts as
// nothing completed.
func (l Link) Finished(progressMap map[string]*progress.ProgressRecord) bool {
	record, ok := progressMap[l.CourseID]
	if !ok || record == nil {
		return false
	}
	return len(record.CompletedLessons) >= l.TotalLessons
}

// IsUnlocked the first course is always unlocked, any other one only once its predecessor
// is finished. Courses outside the chain are locked.
func (c Chain) IsUnlocked(courseID string, progressMap map[string]*progress.ProgressRecord) bool {
	i := c.indexOf(courseID)
	switch {
	case i < 0:
		return false
	case i == 0:
		return true
	}
	return c[i-1].Finished(progressMap)
}

// Evaluate lock flag of every course in the chain
func (c Chain) Evaluate(progressMap map[string]*progress.ProgressRecord) map[string]bool {
	result := make(map[string]bool, len(c))
	for i, l := range c {
		result[l.CourseID] = i == 0 || c[i-1].Finished(progressMap)
	}
	return result
}
