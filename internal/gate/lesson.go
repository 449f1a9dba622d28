package gate

import (
	"github.com/abdabkim/webdevacademy/internal/catalog"
	"github.com/abdabkim/webdevacademy/internal/progress"
)

// LessonState lock and completion flags of one lesson
type LessonState struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	LevelID   string `json:"level_id"`
	Completed bool   `json:"completed"`
	Unlocked  bool   `json:"unlocked"`
}

// LessonStates every lesson of cd in order. The first lesson of each level is unlocked,
// any other lesson only once the one before it in the same level is completed.
// record may be nil for a course that was never started.
func LessonStates(cd *catalog.CourseDefinition, record *progress.ProgressRecord) []LessonState {
	completed := make(map[string]bool)
	if record != nil {
		for _, id := range record.CompletedLessons {
			completed[id] = true
		}
	}

	ids := cd.LessonIDs()
	states := make([]LessonState, 0, len(ids))
	for i, id := range ids {
		level, pos, ok := cd.LevelOf(i + 1)
		if !ok {
			break
		}
		states = append(states, LessonState{
			ID:        id,
			Number:    i + 1,
			LevelID:   level.ID,
			Completed: completed[id],
			Unlocked:  pos == 1 || completed[ids[i-1]],
		})
	}
	return states
}
