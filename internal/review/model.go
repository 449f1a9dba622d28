package review

import (
	"context"
	"fmt"
	"time"
)

// Response how hard the user found a card on review
type Response int

const (
	// Unrated card never reviewed
	Unrated Response = iota
	Hard
	Medium
	Easy
)

var responseNames = map[Response]string{
	Unrated: "unrated",
	Hard:    "hard",
	Medium:  "medium",
	Easy:    "easy",
}

// ParseResponse one of hard, medium, easy
func ParseResponse(s string) (Response, error) {
	for r, name := range responseNames {
		if r != Unrated && name == s {
			return r, nil
		}
	}
	return Unrated, fmt.Errorf("unknown review response %q", s)
}

func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Response(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r Response) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Response) UnmarshalText(text []byte) error {
	if string(text) == responseNames[Unrated] {
		*r = Unrated
		return nil
	}
	parsed, err := ParseResponse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// FlashCard question/answer pair scheduled for review
type FlashCard struct {
	ID           string     `json:"id"`
	UserID       string     `json:"-"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Difficulty   Response   `json:"difficulty"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	NextReview   time.Time  `json:"next_review"`
	CreatedAt    time.Time  `json:"created_at"`
}

type FlashCardRepository interface {
	CreateCard(ctx context.Context, card *FlashCard) error
	// GetCard nil when the user has no such card
	GetCard(ctx context.Context, userID, cardID string) (*FlashCard, error)
	// ListCards ordered by next review
	ListCards(ctx context.Context, userID string) ([]*FlashCard, error)
	// SaveReview persist the review fields of card
	SaveReview(ctx context.Context, card *FlashCard) error
}

type ReviewUseCase interface {
	CreateCard(ctx context.Context, userID, question, answer string) (*FlashCard, error)
	ListCards(ctx context.Context, userID string) ([]*FlashCard, error)
	// DueCard nil when nothing is due
	DueCard(ctx context.Context, userID string) (*FlashCard, error)
	ReviewCard(ctx context.Context, userID, cardID string, response Response) (*FlashCard, error)
}
