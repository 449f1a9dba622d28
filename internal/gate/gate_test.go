package gate

import (
	"fmt"
	"testing"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessons(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return ids
}

func defaultChain(t *testing.T) Chain {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return FromCatalog(cat)
}

func TestIsUnlocked(t *testing.T) {
	chain := defaultChain(t)

	tests := []struct {
		name     string
		course   string
		progress map[string]*progress.ProgressRecord
		unlocked bool
	}{
		{"first course without progress", "html", nil, true},
		{"second course without progress", "css", nil, false},
		{"unknown course", "cobol", nil, false},
		{
			"one lesson short",
			"css",
			map[string]*progress.ProgressRecord{"html": {CompletedLessons: lessons("html", 44), TotalLessons: 45}},
			false,
		},
		{
			"prerequisite finished",
			"css",
			map[string]*progress.ProgressRecord{"html": {CompletedLessons: lessons("html", 45), TotalLessons: 45}},
			true,
		},
		{
			"started is not enough",
			"javascript",
			map[string]*progress.ProgressRecord{
				"html": {CompletedLessons: lessons("html", 45), TotalLessons: 45},
				"css":  {CompletedLessons: []string{}, TotalLessons: 60},
			},
			false,
		},
		{
			"only the direct predecessor counts",
			"php",
			map[string]*progress.ProgressRecord{"javascript": {CompletedLessons: lessons("js", 75), TotalLessons: 75}},
			true,
		},
		{"nil record", "css", map[string]*progress.ProgressRecord{"html": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unlocked, chain.IsUnlocked(tt.course, tt.progress))
		})
	}
}

func TestIsUnlockedUsesCatalogTotal(t *testing.T) {
	chain := Chain{{CourseID: "a", TotalLessons: 3}, {CourseID: "b", TotalLessons: 2}}

	// a record started with a smaller course size does not unlock the next one
	m := map[string]*progress.ProgressRecord{"a": {CompletedLessons: lessons("a", 2), TotalLessons: 2}}
	assert.False(t, chain.IsUnlocked("b", m))

	m["a"].CompletedLessons = lessons("a", 3)
	assert.True(t, chain.IsUnlocked("b", m))
}

func TestEvaluate(t *testing.T) {
	chain := defaultChain(t)

	flags := chain.Evaluate(map[string]*progress.ProgressRecord{
		"html": {CompletedLessons: lessons("html", 45), TotalLessons: 45},
		"css":  {CompletedLessons: lessons("css", 10), TotalLessons: 60},
	})
	assert.Equal(t, map[string]bool{
		"html":       true,
		"css":        true,
		"javascript": false,
		"php":        false,
		"laravel":    false,
		"react":      false,
	}, flags)

	for course, unlocked := range flags {
		assert.Equal(t, unlocked, chain.IsUnlocked(course, map[string]*progress.ProgressRecord{
			"html": {CompletedLessons: lessons("html", 45), TotalLessons: 45},
			"css":  {CompletedLessons: lessons("css", 10), TotalLessons: 60},
		}), course)
	}
}

func TestLessonStates(t *testing.T) {
	cd := &catalog.CourseDefinition{
		ID: "html",
		Levels: []catalog.Level{
			{ID: "beginner", Lessons: 3},
			{ID: "advanced", Lessons: 2},
		},
	}

	t.Run("not started", func(t *testing.T) {
		states := LessonStates(cd, nil)
		require.Len(t, states, 5)
		unlocked := []bool{true, false, false, true, false}
		for i, s := range states {
			assert.Equal(t, i+1, s.Number)
			assert.Equal(t, fmt.Sprintf("html-%d", i+1), s.ID)
			assert.False(t, s.Completed)
			assert.Equal(t, unlocked[i], s.Unlocked, s.ID)
		}
		assert.Equal(t, "beginner", states[2].LevelID)
		assert.Equal(t, "advanced", states[3].LevelID)
	})

	t.Run("partly done", func(t *testing.T) {
		states := LessonStates(cd, &progress.ProgressRecord{CompletedLessons: []string{"html-1", "html-2", "html-4"}})
		got := make([][2]bool, len(states))
		for i, s := range states {
			got[i] = [2]bool{s.Completed, s.Unlocked}
		}
		assert.Equal(t, [][2]bool{
			{true, true},
			{true, true},
			{false, true},
			{true, true},
			{false, true},
		}, got)
	})
}
