package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/uuid"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// ReviewUseCaseImpl ...
type ReviewUseCaseImpl struct {
	FlashCardRepository FlashCardRepository
	UUIDGenerator       uuid.Generator
	Clock               clock.Clock
	Metrics             *metrics.Metrics
}

var _ ReviewUseCase = &ReviewUseCaseImpl{}

// NewReviewUseCase ...
func NewReviewUseCase(
	FlashCardRepository FlashCardRepository,
	UUIDGenerator uuid.Generator,
	Clock clock.Clock,
	Metrics *metrics.Metrics,
) *ReviewUseCaseImpl {
	return &ReviewUseCaseImpl{FlashCardRepository, UUIDGenerator, Clock, Metrics}
}

// CreateCard new card, due right away
func (ru *ReviewUseCaseImpl) CreateCard(ctx context.Context, userID, question, answer string) (*FlashCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.CreateCard", "service")
	defer apmSpan.End()

	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, fmt.Errorf("%w: card needs a question and an answer", domain.ErrInvariantViolation)
	}

	id, err := ru.UUIDGenerator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate card id: %w", err)
	}
	now := ru.Clock.Now()
	card := &FlashCard{
		ID:         id,
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		Difficulty: Unrated,
		NextReview: now,
		CreatedAt:  now,
	}
	if err := ru.FlashCardRepository.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// ListCards every card of the user in review order. Ids are compared byte-wise here, the
// store's collation may not.
func (ru *ReviewUseCaseImpl) ListCards(ctx context.Context, userID string) ([]*FlashCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.ListCards", "service")
	defer apmSpan.End()

	cards, err := ru.FlashCardRepository.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortCards(cards)
	return cards, nil
}

// DueCard next card to review, nil when nothing is due
func (ru *ReviewUseCaseImpl) DueCard(ctx context.Context, userID string) (*FlashCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.DueCard", "service")
	defer apmSpan.End()

	cards, err := ru.FlashCardRepository.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	return GetDueCard(cards, ru.Clock.Now()), nil
}

// ReviewCard reschedule card according to response. Cards can be reviewed before they are due.
func (ru *ReviewUseCaseImpl) ReviewCard(ctx context.Context, userID, cardID string, response Response) (*FlashCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.ReviewCard", "service")
	defer apmSpan.End()

	card, err := ru.FlashCardRepository.GetCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
	}

	next, err := RecordReview(card, response, ru.Clock.Now())
	if err != nil {
		return nil, err
	}
	if err := ru.FlashCardRepository.SaveReview(ctx, next); err != nil {
		return nil, err
	}

	ru.Metrics.CardReviewed(response.String())
	logging.ExtractLoggerFromContext(ctx).Debug("Card reviewed",
		zap.String("card.id", cardID),
		zap.Stringer("card.response", response),
		zap.Time("card.next_review", next.NextReview),
	)
	return next, nil
}
