package domain

// EventKind tags a broadcast event.
type EventKind string

const (
	EventSessionCreated     EventKind = "session.created"
	EventSessionStarted     EventKind = "session.started"
	EventQuestionChanged    EventKind = "question.changed"
	EventTimerTick          EventKind = "timer.tick"
	EventLeaderboardUpdated EventKind = "leaderboard.updated"
	EventParticipantJoined  EventKind = "participant.joined"
	EventParticipantLeft    EventKind = "participant.left"
	EventSessionEnded       EventKind = "session.ended"
)

// Event is the closed set of broadcast payloads. Exactly the structs in this
// file implement it; transports can type-switch exhaustively.
type Event interface {
	Kind() EventKind
}

// SessionCreated announces a freshly created session.
type SessionCreated struct {
	Session *Session `json:"session"`
}

func (SessionCreated) Kind() EventKind { return EventSessionCreated }

// SessionStarted carries the first question (redacted) when the host starts.
type SessionStarted struct {
	SessionID string   `json:"sessionId"`
	Question  Question `json:"currentQuestion"`
	TimeLimit int      `json:"timeLimit"`
}

func (SessionStarted) Kind() EventKind { return EventSessionStarted }

// QuestionChanged announces an advance to a new question.
type QuestionChanged struct {
	QuestionIndex int      `json:"questionIndex"`
	Question      Question `json:"question"`
	TimeLimit     int      `json:"timeLimit"`
	TimeLeft      int      `json:"timeLeft"`
}

func (QuestionChanged) Kind() EventKind { return EventQuestionChanged }

// TimerTick is emitted once per second while a question is live.
type TimerTick struct {
	TimeLeft int `json:"timeLeft"`
}

func (TimerTick) Kind() EventKind { return EventTimerTick }

// LeaderboardUpdated carries the re-ranked scoreboard after a scoring event.
type LeaderboardUpdated struct {
	Entries []LeaderboardEntry `json:"entries"`
}

func (LeaderboardUpdated) Kind() EventKind { return EventLeaderboardUpdated }

// ParticipantJoined announces a new participant.
type ParticipantJoined struct {
	Participant       Participant `json:"participant"`
	TotalParticipants int         `json:"totalParticipants"`
}

func (ParticipantJoined) Kind() EventKind { return EventParticipantJoined }

// ParticipantLeft announces a disconnect. The participant record remains.
type ParticipantLeft struct {
	ParticipantID     string `json:"participantId"`
	TotalParticipants int    `json:"totalParticipants"`
}

func (ParticipantLeft) Kind() EventKind { return EventParticipantLeft }

// SessionEnded carries the final results.
type SessionEnded struct {
	Results QuizResults `json:"results"`
}

func (SessionEnded) Kind() EventKind { return EventSessionEnded }
