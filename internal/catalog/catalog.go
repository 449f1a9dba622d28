package catalog

import (
	"bytes"
	_ "embed" // catalog document
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDocument []byte

// Level a difficulty tier inside a course
type Level struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Lessons     int    `yaml:"lessons" json:"lessons"`
}

// CourseDefinition static description of a course
type CourseDefinition struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	Description  string  `yaml:"description" json:"description"`
	LessonPrefix string  `yaml:"lesson_prefix" json:"-"`
	Levels       []Level `yaml:"levels" json:"levels"`
}

// TotalLessons sum of lessons over all levels
func (cd *CourseDefinition) TotalLessons() int {
	total := 0
	for _, l := range cd.Levels {
		total += l.Lessons
	}
	return total
}

// LessonID id of the n-th lesson (1 based), numbered across levels
func (cd *CourseDefinition) LessonID(n int) string {
	return cd.prefix() + "-" + strconv.Itoa(n)
}

// LessonIDs every lesson id of the course in level order
func (cd *CourseDefinition) LessonIDs() []string {
	total := cd.TotalLessons()
	ids := make([]string, 0, total)
	for n := 1; n <= total; n++ {
		ids = append(ids, cd.LessonID(n))
	}
	return ids
}

// LessonNumber parse lesson id back to its 1 based number
func (cd *CourseDefinition) LessonNumber(lessonID string) (int, bool) {
	rest := strings.TrimPrefix(lessonID, cd.prefix()+"-")
	if rest == lessonID {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > cd.TotalLessons() || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// HasLesson check if lesson id belongs to the course
func (cd *CourseDefinition) HasLesson(lessonID string) bool {
	_, ok := cd.LessonNumber(lessonID)
	return ok
}

// LevelOf returns the level holding lesson n and n's position inside it (1 based)
func (cd *CourseDefinition) LevelOf(n int) (Level, int, bool) {
	offset := 0
	for _, l := range cd.Levels {
		if n <= offset+l.Lessons {
			return l, n - offset, n > offset
		}
		offset += l.Lessons
	}
	return Level{}, 0, false
}

func (cd *CourseDefinition) prefix() string {
	if cd.LessonPrefix != "" {
		return cd.LessonPrefix
	}
	return cd.ID
}

// Catalog ordered, read-only set of courses
type Catalog struct {
	courses []*CourseDefinition
	byID    map[string]*CourseDefinition
}

type document struct {
	Courses []*CourseDefinition `yaml:"courses"`
}

// Load parse a catalog document
func Load(r io.Reader) (*Catalog, error) {
	doc := new(document)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	cat := &Catalog{byID: make(map[string]*CourseDefinition, len(doc.Courses))}
	prefixes := make(map[string]string)
	for _, c := range doc.Courses {
		if c.ID == "" {
			return nil, fmt.Errorf("catalog: course without id")
		}
		if _, ok := cat.byID[c.ID]; ok {
			return nil, fmt.Errorf("catalog: duplicated course %s", c.ID)
		}
		if owner, ok := prefixes[c.prefix()]; ok {
			return nil, fmt.Errorf("catalog: lesson prefix %s used by %s and %s", c.prefix(), owner, c.ID)
		}
		if len(c.Levels) == 0 {
			return nil, fmt.Errorf("catalog: course %s has no levels", c.ID)
		}
		for _, l := range c.Levels {
			if l.Lessons <= 0 {
				return nil, fmt.Errorf("catalog: level %s of %s must have lessons", l.ID, c.ID)
			}
		}
		prefixes[c.prefix()] = c.ID
		cat.byID[c.ID] = c
		cat.courses = append(cat.courses, c)
	}
	if len(cat.courses) == 0 {
		return nil, fmt.Errorf("catalog: no courses")
	}
	return cat, nil
}

// Default the embedded catalog
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultDocument))
}

// Lookup find a course by id
func (c *Catalog) Lookup(courseID string) (*CourseDefinition, error) {
	if cd, ok := c.byID[courseID]; ok {
		return cd, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCourse, courseID)
}

// Courses all courses in unlock order
func (c *Catalog) Courses() []*CourseDefinition {
	return c.courses
}

// Chain course ids in unlock order
func (c *Catalog) Chain() []string {
	chain := make([]string, len(c.courses))
	for i, cd := range c.courses {
		chain[i] = cd.ID
	}
	return chain
}
