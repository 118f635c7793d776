package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/metrics"
	"live-quiz-service/internal/notify"
)

// WSHandler streams session events to clients and accepts commands over the
// same connection. Clients that miss events resync via GET /api/sessions.
type WSHandler struct {
	svc      *app.Coordinator
	hub      *notify.Hub
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc *app.Coordinator, hub *notify.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{
		svc: svc,
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	OptionID      string `json:"optionId"`
}

type hostPayload struct {
	SessionID  string `json:"sessionId"`
	HostWallet string `json:"hostWallet"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// ServeWS upgrades the request and subscribes it to one session's events.
// Query params: code (required), sessionId+participantId (optional; enables
// disconnect tracking for that participant).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := app.NormalizeCode(r.URL.Query().Get("code"))
	if !app.ValidCode(code) {
		http.Error(w, "missing or malformed code", http.StatusBadRequest)
		return
	}
	if _, err := h.svc.PingSession(r.Context(), code); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	participantID := r.URL.Query().Get("participantId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.WSSubscribers.Inc()
	defer metrics.WSSubscribers.Dec()

	events, cancel := h.hub.Subscribe(code)
	defer cancel()
	if sessionID != "" && participantID != "" {
		defer func() {
			_ = h.svc.LeaveSession(r.Context(), sessionID, participantID)
		}()
	}

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: string(event.Kind()), Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Initial full-state sync so a reconnecting client catches up without
	// replaying missed events.
	if session, err := h.svc.GetSession(r.Context(), code); err == nil {
		send <- outboundMessage{Type: "session.state", Payload: session}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload", "bad_json")
				continue
			}
			outcome, err := h.svc.SubmitAnswer(r.Context(), payload.SessionID, payload.ParticipantID, payload.QuestionID, payload.OptionID)
			if err != nil {
				send <- errorMessage(err.Error(), domain.ReasonOf(err))
				continue
			}
			send <- outboundMessage{Type: "answer.result", Payload: outcome}
		case "start":
			h.hostCommand(r, send, inbound.Payload, h.svc.StartSession)
		case "advance":
			h.hostCommand(r, send, inbound.Payload, h.svc.AdvanceQuestion)
		case "end":
			h.hostCommand(r, send, inbound.Payload, h.svc.EndSession)
		default:
			send <- errorMessage("unsupported message type", "unsupported_type")
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) hostCommand(r *http.Request, send chan<- outboundMessage, raw json.RawMessage, cmd func(ctx context.Context, sessionID, hostWallet string) (*domain.Session, error)) {
	var payload hostPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		send <- errorMessage("invalid command payload", "bad_json")
		return
	}
	if _, err := cmd(r.Context(), payload.SessionID, payload.HostWallet); err != nil {
		send <- errorMessage(err.Error(), domain.ReasonOf(err))
	}
}

func errorMessage(message, reason string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: message, Reason: reason}}
}
