package handler

import (
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/validate"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/labstack/echo/v4"
)

type ProgressHandler struct {
	catalog         *catalog.Catalog
	progressUseCase progress.ProgressUseCase
	validator       validate.Validator
	jwtUtil         *auth.JWTUtil
}

func NewProgressHandler(
	Catalog *catalog.Catalog,
	ProgressUseCase progress.ProgressUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ProgressHandler {
	return &ProgressHandler{Catalog, ProgressUseCase, Validator, JWTUtil}
}

// ProgressView a progress record with its lesson audit trail
type ProgressView struct {
	*progress.ProgressRecord
	Completions []*progress.LessonCompletion `json:"completions"`
}

func (ph *ProgressHandler) HandleListProgress(c echo.Context) error {
	claims := ph.jwtUtil.GetContextToken(c)
	records, err := ph.progressUseCase.ListProgress(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

func (ph *ProgressHandler) HandleGetProgress(c echo.Context) error {
	courseID := c.Param("course")
	if errs := ph.validator.Var("course", courseID, "required,"+validate.SlugTag); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}
	if _, err := ph.catalog.Lookup(courseID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	claims := ph.jwtUtil.GetContextToken(c)
	record, err := ph.progressUseCase.GetProgress(ctx, claims.UID, courseID)
	if err != nil {
		return err
	}
	completions, err := ph.progressUseCase.ListCompletions(ctx, claims.UID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &ProgressView{record, completions})
}

func (ph *ProgressHandler) HandleGetStats(c echo.Context) error {
	claims := ph.jwtUtil.GetContextToken(c)
	stats, err := ph.progressUseCase.DashboardStats(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
