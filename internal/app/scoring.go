package app

import "confluenze-quiz-service/internal/domain"

// Score awards one point per question whose stored answer matches the correct
// option index. No partial credit, no negative marking. Deterministic and
// side-effect free; speed only matters as a leaderboard tiebreaker.
func Score(questions []domain.Question, answers domain.AnswerSet) int {
	score := 0
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.Answer {
			score++
		}
	}
	return score
}
