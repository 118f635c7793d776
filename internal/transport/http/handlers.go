package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Handler serves the coordinator's command inputs over request/response.
// Poll-based clients use the GET endpoints to resync to authoritative state.
type Handler struct {
	svc *app.Coordinator
	log *zap.Logger
}

func NewHandler(svc *app.Coordinator, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type createSessionRequest struct {
	Quiz              *domain.Quiz `json:"quiz,omitempty"`
	QuizID            string       `json:"quizId,omitempty"`
	PrizeAmount       float64      `json:"prizeAmount"`
	HostWallet        string       `json:"hostWallet"`
	QuestionTimeLimit int          `json:"questionTimeLimit,omitempty"`
}

type joinSessionRequest struct {
	Code        string `json:"code"`
	Wallet      string `json:"walletAddress"`
	DisplayName string `json:"username,omitempty"`
}

type hostCommandRequest struct {
	HostWallet string `json:"hostWallet"`
}

type answerRequest struct {
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	OptionID      string `json:"optionId"`
}

type leaveRequest struct {
	ParticipantID string `json:"participantId"`
}

type pingRequest struct {
	Code string `json:"code"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.svc.CreateSession(r.Context(), app.CreateSessionRequest{
		Quiz:              req.Quiz,
		QuizID:            req.QuizID,
		PrizeAmount:       req.PrizeAmount,
		HostWallet:        req.HostWallet,
		QuestionTimeLimit: req.QuestionTimeLimit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "session": session})
}

func (h *Handler) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, participant, err := h.svc.JoinSession(r.Context(), req.Code, req.Wallet, req.DisplayName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"session":     session,
		"participant": participant,
	})
}

func (h *Handler) PingSession(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if !h.decode(w, r, &req) {
		return
	}
	summary, err := h.svc.PingSession(r.Context(), req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": summary})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetLeaderboard(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "leaderboard": entries})
}

func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.GetResults(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req hostCommandRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.svc.StartSession(r.Context(), chi.URLParam(r, "id"), req.HostWallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

func (h *Handler) AdvanceQuestion(w http.ResponseWriter, r *http.Request) {
	var req hostCommandRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.svc.AdvanceQuestion(r.Context(), chi.URLParam(r, "id"), req.HostWallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	var req hostCommandRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.svc.EndSession(r.Context(), chi.URLParam(r, "id"), req.HostWallet)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.svc.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.ParticipantID, req.QuestionID, req.OptionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"isCorrect":       outcome.IsCorrect,
		"awarded":         outcome.Awarded,
		"score":           outcome.NewScore,
		"correctOptionId": outcome.CorrectOptionID,
		"leaderboard":     outcome.Leaderboard,
	})
}

func (h *Handler) LeaveSession(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.LeaveSession(r.Context(), chi.URLParam(r, "id"), req.ParticipantID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid JSON body",
			"reason": "bad_json",
		})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, statusFor(err), map[string]any{
		"error":  err.Error(),
		"reason": domain.ReasonOf(err),
	})
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
