package service

import (
	"math"

	"github.com/stemsi/interview-sim/internal/model"
)

// AggregateScore maps per-answer scores (0..10) onto a 0..100 total. Missing
// scores count as zero and the divisor is always the batch size, so an
// interview with unscored answers is not inflated.
func AggregateScore(answers []model.Answer) int {
	sum := 0
	for _, a := range answers {
		if a.Score == nil {
			continue
		}
		s := *a.Score
		if s < 0 {
			s = 0
		} else if s > 10 {
			s = 10
		}
		sum += s
	}
	total := float64(sum) / model.QuestionsPerInterview * 10
	return int(math.Round(math.Max(0, math.Min(100, total))))
}
