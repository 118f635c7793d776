package domain

import "time"

// SessionStatus is the lifecycle state of a live quiz session.
// Transitions are linear: waiting -> active -> ended.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// Option represents a possible answer for a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question with at least one correct option.
type Question struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Difficulty string   `json:"difficulty,omitempty"`
	Options    []Option `json:"options"`
}

// CorrectOptionID returns the id of the first correct option, or "".
func (q Question) CorrectOptionID() string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return ""
}

// Quiz is an immutable snapshot of quiz content taken at session creation.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Answer records one participant's answer to one question. At most one
// answer exists per (participant, question) and it is never rewritten.
type Answer struct {
	QuestionID    string    `json:"questionId"`
	OptionID      string    `json:"optionId"`
	IsCorrect     bool      `json:"isCorrect"`
	ElapsedMillis int64     `json:"elapsedMillis"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Participant is an identity that joined a session. Participants are never
// removed while the session exists; disconnects only flip Connected.
type Participant struct {
	ID          string    `json:"id"`
	Wallet      string    `json:"walletAddress"`
	DisplayName string    `json:"displayName,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
	Connected   bool      `json:"isConnected"`
	Score       int       `json:"score"`
	Answers     []Answer  `json:"answers"`
	Rank        int       `json:"rank,omitempty"`
}

// HasAnswered reports whether the participant already answered questionID.
func (p *Participant) HasAnswered(questionID string) bool {
	for _, a := range p.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// MeanElapsedMillis is the average time-to-answer across all answers.
// Participants with no answers sort behind any participant that answered.
func (p *Participant) MeanElapsedMillis() float64 {
	if len(p.Answers) == 0 {
		return noAnswerElapsed
	}
	var sum int64
	for _, a := range p.Answers {
		sum += a.ElapsedMillis
	}
	return float64(sum) / float64(len(p.Answers))
}

const noAnswerElapsed = 1e18

// Session is one live quiz instance identified by a short join code.
type Session struct {
	ID                   string        `json:"id"`
	Code                 string        `json:"code"`
	Quiz                 Quiz          `json:"quiz"`
	HostWallet           string        `json:"hostWallet"`
	PrizeAmount          float64       `json:"prizeAmount"`
	Status               SessionStatus `json:"status"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	QuestionStartTime    time.Time     `json:"questionStartTime"`
	QuestionTimeLimit    int           `json:"questionTimeLimit"` // seconds
	Participants         []Participant `json:"participants"`
	CreatedAt            time.Time     `json:"createdAt"`
	StartedAt            *time.Time    `json:"startedAt,omitempty"`
	EndedAt              *time.Time    `json:"endedAt,omitempty"`
	Results              *QuizResults  `json:"results,omitempty"`
}

// CurrentQuestion returns the question at CurrentQuestionIndex.
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Quiz.Questions) {
		return Question{}, false
	}
	return s.Quiz.Questions[s.CurrentQuestionIndex], true
}

// FindParticipantByID looks a participant up by participant id.
func (s *Session) FindParticipantByID(id string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// FindParticipantByWallet looks a participant up by joining identity.
func (s *Session) FindParticipantByWallet(wallet string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Wallet == wallet {
			return &s.Participants[i]
		}
	}
	return nil
}

// Redacted returns a copy of the session safe to expose to clients. Until
// the session has ended the correct-option flags are stripped from every
// question, so no client can learn the answers early.
func (s *Session) Redacted() *Session {
	out := *s
	out.Participants = append([]Participant(nil), s.Participants...)
	if s.Status == StatusEnded {
		return &out
	}
	out.Quiz.Questions = RedactQuestions(s.Quiz.Questions)
	return &out
}

// RedactQuestions strips IsCorrect from each option.
func RedactQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		rq := q
		rq.Options = make([]Option, len(q.Options))
		for j, o := range q.Options {
			o.IsCorrect = false
			rq.Options[j] = o
		}
		out[i] = rq
	}
	return out
}

// RedactQuestion strips IsCorrect from a single question's options.
func RedactQuestion(q Question) Question {
	return RedactQuestions([]Question{q})[0]
}

// LeaderboardEntry is a scoreboard row derived from a participant.
type LeaderboardEntry struct {
	ParticipantID  string  `json:"id"`
	Wallet         string  `json:"walletAddress"`
	DisplayName    string  `json:"displayName,omitempty"`
	Score          int     `json:"score"`
	Rank           int     `json:"rank"`
	Attempted      int     `json:"questionsAttempted"`
	CorrectAnswers int     `json:"correctAnswers"`
	Accuracy       float64 `json:"accuracy"`
}

// QuizResults is the immutable end-of-session summary, computed exactly once
// when the session transitions to ended.
type QuizResults struct {
	SessionID         string              `json:"sessionId"`
	Quiz              Quiz                `json:"quiz"`
	HostWallet        string              `json:"hostWallet"`
	PrizeAmount       float64             `json:"prizeAmount"`
	TotalParticipants int                 `json:"totalParticipants"`
	CompletedAt       time.Time           `json:"completedAt"`
	DurationMillis    int64               `json:"duration"`
	Participants      []ParticipantResult `json:"participants"`
	QuestionStats     []QuestionStats     `json:"questionStats"`
}

// ParticipantResult is the per-participant slice of QuizResults.
type ParticipantResult struct {
	ParticipantID       string   `json:"id"`
	Wallet              string   `json:"walletAddress"`
	DisplayName         string   `json:"displayName,omitempty"`
	Score               int      `json:"score"`
	Rank                int      `json:"rank"`
	TotalAnswers        int      `json:"totalAnswers"`
	CorrectAnswers      int      `json:"correctAnswers"`
	AverageResponseTime float64  `json:"averageResponseTime"`
	Answers             []Answer `json:"answers"`
	Prize               float64  `json:"prize"`
}

// QuestionStats aggregates how one question was answered.
type QuestionStats struct {
	QuestionID          string            `json:"questionId"`
	Prompt              string            `json:"questionText"`
	TotalAnswers        int               `json:"totalAnswers"`
	CorrectAnswers      int               `json:"correctAnswers"`
	AccuracyRate        float64           `json:"accuracyRate"`
	AverageResponseTime float64           `json:"averageResponseTime"`
	OptionBreakdown     []OptionBreakdown `json:"optionBreakdown"`
}

// OptionBreakdown is the answer distribution for a single option.
type OptionBreakdown struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"optionText"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PingSummary is the minimal view returned by a code existence check.
type PingSummary struct {
	Exists           bool          `json:"exists"`
	Title            string        `json:"title"`
	Code             string        `json:"code"`
	Status           SessionStatus `json:"status"`
	ParticipantCount int           `json:"participantCount"`
	PrizeAmount      float64       `json:"prizeAmount"`
}
