package review

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
)

type FlashCardSQL struct {
	Conn driver.ITransactionalDB
}

var _ FlashCardRepository = &FlashCardSQL{}

func NewFlashCardRepository(Conn driver.ITransactionalDB) *FlashCardSQL {
	return &FlashCardSQL{Conn}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

const cardColumns = `id, question, answer, difficulty, last_reviewed, next_review, created_at`

func scanCard(rows driver.ISQLRows, userID string) (*FlashCard, error) {
	var (
		difficulty            int
		lastReviewed          sql.NullInt64
		nextReview, createdAt int64
	)
	card := &FlashCard{UserID: userID}
	if err := rows.Scan(&card.ID, &card.Question, &card.Answer, &difficulty, &lastReviewed, &nextReview, &createdAt); err != nil {
		return nil, storeError(err)
	}
	card.Difficulty = Response(difficulty)
	card.LastReviewed = driver.FromNullMillis(lastReviewed)
	card.NextReview = driver.FromMillis(nextReview)
	card.CreatedAt = driver.FromMillis(createdAt)
	return card, nil
}

func (repo *FlashCardSQL) CreateCard(ctx context.Context, card *FlashCard) error {
	_, err := repo.Conn.ExecContext(ctx, `
INSERT INTO flashcard (user_id, id, question, answer, difficulty, last_reviewed, next_review, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		card.UserID,
		card.ID,
		card.Question,
		card.Answer,
		int(card.Difficulty),
		driver.NullMillis(card.LastReviewed),
		driver.Millis(card.NextReview),
		driver.Millis(card.CreatedAt),
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (repo *FlashCardSQL) GetCard(ctx context.Context, userID, cardID string) (*FlashCard, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+cardColumns+`
FROM flashcard
WHERE user_id = $1 AND id = $2`, userID, cardID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, storeError(err)
		}
		return nil, nil
	}
	return scanCard(rows, userID)
}

func (repo *FlashCardSQL) ListCards(ctx context.Context, userID string) ([]*FlashCard, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+cardColumns+`
FROM flashcard
WHERE user_id = $1
ORDER BY next_review ASC, id ASC`, userID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []*FlashCard{}
	for rows.Next() {
		card, err := scanCard(rows, userID)
		if err != nil {
			return nil, err
		}
		result = append(result, card)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (repo *FlashCardSQL) SaveReview(ctx context.Context, card *FlashCard) error {
	res, err := repo.Conn.ExecContext(ctx, `
UPDATE flashcard
SET difficulty = $1, last_reviewed = $2, next_review = $3
WHERE user_id = $4 AND id = $5`,
		int(card.Difficulty),
		driver.NullMillis(card.LastReviewed),
		driver.Millis(card.NextReview),
		card.UserID,
		card.ID,
	)
	if err != nil {
		return storeError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}
