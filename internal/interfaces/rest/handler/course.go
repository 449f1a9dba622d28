package handler

import (
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/gate"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/validate"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/labstack/echo/v4"
)

type CourseHandler struct {
	catalog         *catalog.Catalog
	chain           gate.Chain
	progressUseCase progress.ProgressUseCase
	validator       validate.Validator
	jwtUtil         *auth.JWTUtil
}

func NewCourseHandler(
	Catalog *catalog.Catalog,
	ProgressUseCase progress.ProgressUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *CourseHandler {
	return &CourseHandler{
		catalog:         Catalog,
		chain:           gate.FromCatalog(Catalog),
		progressUseCase: ProgressUseCase,
		validator:       Validator,
		jwtUtil:         JWTUtil,
	}
}

// CourseView catalog entry along with the user's standing in it
type CourseView struct {
	*catalog.CourseDefinition
	TotalLessons int                      `json:"total_lessons"`
	Unlocked     bool                     `json:"unlocked"`
	Progress     *progress.ProgressRecord `json:"progress,omitempty"`
}

// CourseLessonsView lessons of a course with their lock state
type CourseLessonsView struct {
	CourseID string             `json:"course_id"`
	Unlocked bool               `json:"unlocked"`
	Started  bool               `json:"started"`
	Lessons  []gate.LessonState `json:"lessons"`
}

type startCourseRequest struct {
	Course     string `param:"course" validate:"required,slug"`
	AllowReset bool   `json:"allow_reset"`
}

type completeLessonRequest struct {
	Course    string `param:"course" validate:"required,slug"`
	Lesson    string `param:"lesson" validate:"required"`
	TimeSpent int    `json:"time_spent" validate:"min=0,max=1440"` // minutes
}

// HandleListCourses every course in unlock order with lock flag and progress
func (ch *CourseHandler) HandleListCourses(c echo.Context) error {
	claims := ch.jwtUtil.GetContextToken(c)
	progressMap, err := ch.progressUseCase.ProgressMap(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}

	flags := ch.chain.Evaluate(progressMap)
	courses := ch.catalog.Courses()
	result := make([]*CourseView, 0, len(courses))
	for _, cd := range courses {
		result = append(result, &CourseView{
			CourseDefinition: cd,
			TotalLessons:     cd.TotalLessons(),
			Unlocked:         flags[cd.ID],
			Progress:         progressMap[cd.ID],
		})
	}
	return c.JSON(http.StatusOK, result)
}

// HandleListLessons lesson lock view of one course
func (ch *CourseHandler) HandleListLessons(c echo.Context) error {
	courseID := c.Param("course")
	if errs := ch.validator.Var("course", courseID, "required,"+validate.SlugTag); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}
	cd, err := ch.catalog.Lookup(courseID)
	if err != nil {
		return err
	}
	claims := ch.jwtUtil.GetContextToken(c)
	progressMap, err := ch.progressUseCase.ProgressMap(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}

	record := progressMap[cd.ID]
	return c.JSON(http.StatusOK, &CourseLessonsView{
		CourseID: cd.ID,
		Unlocked: ch.chain.IsUnlocked(cd.ID, progressMap),
		Started:  record != nil,
		Lessons:  gate.LessonStates(cd, record),
	})
}

// HandleStartCourse create (or with allow_reset, reset) the user's progress in a course
func (ch *CourseHandler) HandleStartCourse(c echo.Context) error {
	req := new(startCourseRequest)
	if err := c.Bind(req); err != nil {
		return ValidationFailed(c, "Failed to bind request", []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	req.Course = c.Param("course")
	if errs := ch.validator.Struct(req); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}
	cd, err := ch.catalog.Lookup(req.Course)
	if err != nil {
		return err
	}

	claims := ch.jwtUtil.GetContextToken(c)
	record, err := ch.progressUseCase.StartCourse(c.Request().Context(),
		claims.UID, cd.ID, cd.Name, cd.TotalLessons(), req.AllowReset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, record)
}

// HandleCompleteLesson mark a lesson of the course completed
func (ch *CourseHandler) HandleCompleteLesson(c echo.Context) error {
	req := new(completeLessonRequest)
	if err := c.Bind(req); err != nil {
		return ValidationFailed(c, "Failed to bind request", []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	req.Course, req.Lesson = c.Param("course"), c.Param("lesson")
	if errs := ch.validator.Struct(req); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}
	cd, err := ch.catalog.Lookup(req.Course)
	if err != nil {
		return err
	}
	if !cd.HasLesson(req.Lesson) {
		return domain.ErrUnknownLesson
	}

	claims := ch.jwtUtil.GetContextToken(c)
	record, err := ch.progressUseCase.CompleteLesson(c.Request().Context(), claims.UID, cd.ID, req.Lesson, req.TimeSpent)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}
