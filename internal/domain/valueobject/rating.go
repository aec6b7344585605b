package valueobject

import (
	"math"

	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

// RatingAggregate - накопленный рейтинг специалиста.
type RatingAggregate struct {
	Average float64 `json:"avg_rating"`
	Count   int     `json:"rating_count"`
}

// Add возвращает агрегат с учётом новой оценки.
func (a RatingAggregate) Add(rating float64) RatingAggregate {
	count := a.Count + 1
	return RatingAggregate{
		Average: (a.Average*float64(a.Count) + rating) / float64(count),
		Count:   count,
	}
}

// Rounded округляет среднее до двух знаков для сводок.
func (a RatingAggregate) Rounded() float64 {
	return math.Round(a.Average*100) / 100
}

func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 0 до 5")
	}
	return nil
}
