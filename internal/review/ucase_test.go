package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/uuid"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/abdabkim/webdevacademy/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewFlow(t *testing.T) {
	ctx := testutil.Context(t)
	clk := testutil.Clock(2024, 5, 20, 12)
	m := metrics.New()
	uc := NewReviewUseCase(NewFlashCardRepository(testutil.DB(t)), &uuid.SequenceGenerator{Prefix: "card"}, clk, m)

	due, err := uc.DueCard(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, due)

	first, err := uc.CreateCard(ctx, "u1", " What does CSS stand for? ", "Cascading Style Sheets")
	require.NoError(t, err)
	assert.Equal(t, "card-1", first.ID)
	assert.Equal(t, "What does CSS stand for?", first.Question)
	assert.Equal(t, clk.Now(), first.NextReview)

	clk.Advance(time.Minute)
	second, err := uc.CreateCard(ctx, "u1", "What is the DOM?", "The document object model")
	require.NoError(t, err)

	due, err = uc.DueCard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, first.ID, due.ID)

	reviewed, err := uc.ReviewCard(ctx, "u1", first.ID, Easy)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().AddDate(0, 0, 7), reviewed.NextReview)
	n, err := promtest.GatherAndCount(m.Registry(), "webdevacademy_flashcards_reviewed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	due, err = uc.DueCard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, second.ID, due.ID)

	_, err = uc.ReviewCard(ctx, "u1", second.ID, Hard)
	require.NoError(t, err)

	due, err = uc.DueCard(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, due)

	clk.Advance(24 * time.Hour)
	due, err = uc.DueCard(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, second.ID, due.ID)
	assert.Equal(t, Hard, due.Difficulty)

	cards, err := uc.ListCards(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].ID)
	assert.Equal(t, first.ID, cards[1].ID)
	require.NotNil(t, cards[1].LastReviewed)
}

func TestReviewCardNotFound(t *testing.T) {
	ctx := testutil.Context(t)
	clk := testutil.Clock(2024, 5, 20, 12)
	uc := NewReviewUseCase(NewFlashCardRepository(testutil.DB(t)), &uuid.SequenceGenerator{Prefix: "card"}, clk, nil)

	card, err := uc.CreateCard(ctx, "u1", "q", "a")
	require.NoError(t, err)

	_, err = uc.ReviewCard(ctx, "u2", card.ID, Easy)
	assert.True(t, errors.Is(err, domain.ErrCardNotFound))

	cards, err := uc.ListCards(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestCreateCardNeedsContent(t *testing.T) {
	ctx := testutil.Context(t)
	uc := NewReviewUseCase(NewFlashCardRepository(testutil.DB(t)), &uuid.SequenceGenerator{}, testutil.Clock(2024, 5, 20, 12), nil)

	_, err := uc.CreateCard(ctx, "u1", "  ", "a")
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

type shuffledRepository struct {
	FlashCardRepository
	cards []*FlashCard
}

func (r *shuffledRepository) ListCards(ctx context.Context, userID string) ([]*FlashCard, error) {
	return r.cards, nil
}

func TestListCardsInReviewOrder(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	repo := &shuffledRepository{cards: []*FlashCard{
		{ID: "b", NextReview: now},
		{ID: "c", NextReview: now.Add(-time.Hour)},
		{ID: "B", NextReview: now},
	}}
	uc := NewReviewUseCase(repo, &uuid.SequenceGenerator{}, testutil.Clock(2024, 5, 20, 12), nil)

	cards, err := uc.ListCards(testutil.Context(t), "u1")
	require.NoError(t, err)
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c", "B", "b"}, ids)
}
