package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// Rerank recomputes participant ranks in place: score descending, then mean
// time-to-answer ascending (faster average wins), then join order. The final
// tie-break is arbitrary but deterministic; sort.SliceStable preserves the
// insertion order of the participants slice.
func Rerank(s *domain.Session) {
	byRank := make([]*domain.Participant, len(s.Participants))
	for i := range s.Participants {
		byRank[i] = &s.Participants[i]
	}
	sort.SliceStable(byRank, func(i, j int) bool {
		if byRank[i].Score != byRank[j].Score {
			return byRank[i].Score > byRank[j].Score
		}
		return byRank[i].MeanElapsedMillis() < byRank[j].MeanElapsedMillis()
	})
	for i, p := range byRank {
		p.Rank = i + 1
	}
}

// Leaderboard builds the presentation-ordered scoreboard for a session.
// Ranks are taken as-is; callers mutating scores must Rerank first.
func Leaderboard(s *domain.Session) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(s.Participants))
	for i := range s.Participants {
		p := &s.Participants[i]
		correct := 0
		for _, a := range p.Answers {
			if a.IsCorrect {
				correct++
			}
		}
		accuracy := 0.0
		if len(p.Answers) > 0 {
			accuracy = float64(correct) / float64(len(p.Answers)) * 100
		}
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID:  p.ID,
			Wallet:         p.Wallet,
			DisplayName:    p.DisplayName,
			Score:          p.Score,
			Rank:           p.Rank,
			Attempted:      len(p.Answers),
			CorrectAnswers: correct,
			Accuracy:       accuracy,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return entries
}
