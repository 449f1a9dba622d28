package review

import (
	"fmt"
	"sort"
	"time"

	"github.com/abdabkim/webdevacademy/internal/domain"
)

// Intervals days until the next review per response. The schedule is fixed and does not
// grow with the card's history.
var Intervals = map[Response]int{
	Hard:   1,
	Medium: 3,
	Easy:   7,
}

// SortCards ascending next review, ties broken by id
func SortCards(cards []*FlashCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if !a.NextReview.Equal(b.NextReview) {
			return a.NextReview.Before(b.NextReview)
		}
		return a.ID < b.ID
	})
}

// GetDueCard first card in review order whose next review is not after now, nil if none.
// cards is not reordered.
func GetDueCard(cards []*FlashCard, now time.Time) *FlashCard {
	var due *FlashCard
	for _, c := range cards {
		if c.NextReview.After(now) {
			continue
		}
		if due == nil || c.NextReview.Before(due.NextReview) ||
			(c.NextReview.Equal(due.NextReview) && c.ID < due.ID) {
			due = c
		}
	}
	return due
}

// RecordReview copy of card reviewed at now with the given response
func RecordReview(card *FlashCard, response Response, now time.Time) (*FlashCard, error) {
	days, ok := Intervals[response]
	if !ok {
		return nil, fmt.Errorf("%w: review response %v", domain.ErrInvariantViolation, response)
	}
	next := *card
	reviewed := now
	next.LastReviewed = &reviewed
	next.NextReview = now.AddDate(0, 0, days)
	next.Difficulty = response
	return &next, nil
}
