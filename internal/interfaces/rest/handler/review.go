package handler

import (
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/validate"
	"github.com/abdabkim/webdevacademy/internal/review"
	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	reviewUseCase review.ReviewUseCase
	validator     validate.Validator
	jwtUtil       *auth.JWTUtil
}

func NewReviewHandler(
	ReviewUseCase review.ReviewUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ReviewHandler {
	return &ReviewHandler{ReviewUseCase, Validator, JWTUtil}
}

type createCardRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	Answer   string `json:"answer" validate:"required,max=4000"`
}

type reviewCardRequest struct {
	Card     string `param:"card" validate:"required,max=64"`
	Response string `json:"response" validate:"required,oneof=hard medium easy"`
}

func (rh *ReviewHandler) HandleListCards(c echo.Context) error {
	claims := rh.jwtUtil.GetContextToken(c)
	cards, err := rh.reviewUseCase.ListCards(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cards)
}

func (rh *ReviewHandler) HandleCreateCard(c echo.Context) error {
	req := new(createCardRequest)
	if err := c.Bind(req); err != nil {
		return ValidationFailed(c, "Failed to bind request", []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	if errs := rh.validator.Struct(req); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}

	claims := rh.jwtUtil.GetContextToken(c)
	card, err := rh.reviewUseCase.CreateCard(c.Request().Context(), claims.UID, req.Question, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, card)
}

// HandleDueCard 204 when nothing is due
func (rh *ReviewHandler) HandleDueCard(c echo.Context) error {
	claims := rh.jwtUtil.GetContextToken(c)
	card, err := rh.reviewUseCase.DueCard(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	if card == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, card)
}

func (rh *ReviewHandler) HandleReviewCard(c echo.Context) error {
	req := new(reviewCardRequest)
	if err := c.Bind(req); err != nil {
		return ValidationFailed(c, "Failed to bind request", []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	req.Card = c.Param("card")
	if errs := rh.validator.Struct(req); errs != nil {
		return ValidationFailed(c, "Failed to validate params", errs)
	}
	response, err := review.ParseResponse(req.Response)
	if err != nil {
		return ValidationFailed(c, "Failed to validate params", []*validate.FieldError{validate.NewFieldError("response", err.Error())})
	}

	claims := rh.jwtUtil.GetContextToken(c)
	card, err := rh.reviewUseCase.ReviewCard(c.Request().Context(), claims.UID, req.Card, response)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}
