package app

import (
	"time"

	"live-quiz-service/internal/domain"
)

// BuildResults computes the end-of-session summary. It runs exactly once,
// when a session transitions to ended, and iterates participants and
// questions once each regardless of how many answer events occurred.
func BuildResults(s *domain.Session, endedAt time.Time) domain.QuizResults {
	Rerank(s)

	participants := make([]domain.ParticipantResult, 0, len(s.Participants))
	for i := range s.Participants {
		p := &s.Participants[i]
		correct := 0
		var totalElapsed int64
		for _, a := range p.Answers {
			if a.IsCorrect {
				correct++
			}
			totalElapsed += a.ElapsedMillis
		}
		avg := 0.0
		if len(p.Answers) > 0 {
			avg = float64(totalElapsed) / float64(len(p.Answers))
		}
		prize := 0.0
		if p.Rank == 1 {
			// Winner takes all; settlement is out of scope, this is informational.
			prize = s.PrizeAmount
		}
		participants = append(participants, domain.ParticipantResult{
			ParticipantID:       p.ID,
			Wallet:              p.Wallet,
			DisplayName:         p.DisplayName,
			Score:               p.Score,
			Rank:                p.Rank,
			TotalAnswers:        len(p.Answers),
			CorrectAnswers:      correct,
			AverageResponseTime: avg,
			Answers:             append([]domain.Answer(nil), p.Answers...),
			Prize:               prize,
		})
	}

	// Index answers by question so question stats stay O(participants x questions).
	byQuestion := make(map[string][]domain.Answer)
	for i := range s.Participants {
		for _, a := range s.Participants[i].Answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
		}
	}

	stats := make([]domain.QuestionStats, 0, len(s.Quiz.Questions))
	for _, q := range s.Quiz.Questions {
		answers := byQuestion[q.ID]
		correct := 0
		var totalElapsed int64
		counts := make(map[string]int, len(q.Options))
		for _, a := range answers {
			if a.IsCorrect {
				correct++
			}
			totalElapsed += a.ElapsedMillis
			counts[a.OptionID]++
		}
		breakdown := make([]domain.OptionBreakdown, 0, len(q.Options))
		for _, o := range q.Options {
			pct := 0.0
			if len(answers) > 0 {
				pct = float64(counts[o.ID]) / float64(len(answers)) * 100
			}
			breakdown = append(breakdown, domain.OptionBreakdown{
				OptionID:   o.ID,
				Text:       o.Text,
				Count:      counts[o.ID],
				Percentage: pct,
			})
		}
		accuracy := 0.0
		avg := 0.0
		if len(answers) > 0 {
			accuracy = float64(correct) / float64(len(answers)) * 100
			avg = float64(totalElapsed) / float64(len(answers))
		}
		stats = append(stats, domain.QuestionStats{
			QuestionID:          q.ID,
			Prompt:              q.Prompt,
			TotalAnswers:        len(answers),
			CorrectAnswers:      correct,
			AccuracyRate:        accuracy,
			AverageResponseTime: avg,
			OptionBreakdown:     breakdown,
		})
	}

	var duration int64
	if s.StartedAt != nil {
		duration = endedAt.Sub(*s.StartedAt).Milliseconds()
	}

	return domain.QuizResults{
		SessionID:         s.ID,
		Quiz:              s.Quiz,
		HostWallet:        s.HostWallet,
		PrizeAmount:       s.PrizeAmount,
		TotalParticipants: len(s.Participants),
		CompletedAt:       endedAt,
		DurationMillis:    duration,
		Participants:      participants,
		QuestionStats:     stats,
	}
}
