package handler

import (
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/streak"
	"github.com/labstack/echo/v4"
)

type StreakHandler struct {
	streakUseCase streak.StreakUseCase
	jwtUtil       *auth.JWTUtil
}

func NewStreakHandler(StreakUseCase streak.StreakUseCase, JWTUtil *auth.JWTUtil) *StreakHandler {
	return &StreakHandler{StreakUseCase, JWTUtil}
}

func (sh *StreakHandler) HandleGetStreak(c echo.Context) error {
	claims := sh.jwtUtil.GetContextToken(c)
	record, err := sh.streakUseCase.GetStreak(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

func (sh *StreakHandler) HandleRecompute(c echo.Context) error {
	claims := sh.jwtUtil.GetContextToken(c)
	record, err := sh.streakUseCase.RecomputeStreak(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

func (sh *StreakHandler) HandleListActivity(c echo.Context) error {
	claims := sh.jwtUtil.GetContextToken(c)
	entries, err := sh.streakUseCase.ListActivity(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
