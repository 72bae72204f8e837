package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/game"

	"github.com/gorilla/websocket"
)

var (
	errInvalidPayload  = errors.New("invalid message payload")
	errUnsupportedType = errors.New("unsupported message type")
)

// WSHandler upgrades HTTP requests to websockets, one quiz session per
// connection. Snapshots stream out after every mutation; player actions
// arrive as typed inbound messages.
type WSHandler struct {
	sessions func() *game.Session
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewWSHandler builds a handler that creates a fresh session per connection
// via the given factory. The tick interval drives countdowns; zero means one
// second.
func NewWSHandler(sessions func() *game.Session, interval time.Duration) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		interval: interval,
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

type generatePayload struct {
	Config domain.QuizConfig `json:"config"`
}

type answerPayload struct {
	OptionIndex *int   `json:"optionIndex"`
	Text        string `json:"text"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type askPayload struct {
	Query string `json:"query"`
}

type askResult struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs the read loop for one connection. A writer goroutine owns the
// socket for writes; the updates goroutine forwards session snapshots into it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.sessions()
	updates, cancel := session.Subscribe()
	defer cancel()

	ticker := game.NewTicker(h.interval)
	ticker.Start(session)
	defer ticker.Stop()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, session, send, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, session *game.Session, send chan outboundMessage[any], inbound inboundMessage) error {
	ctx := r.Context()
	switch inbound.Type {
	case "generate":
		var payload generatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.Generate(ctx, payload.Config)
	case "generatePrebuilt":
		var payload generatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.GeneratePrebuilt(ctx, payload.Config)
	case "confirmStart":
		return session.ConfirmStart()
	case "answer":
		return h.answer(ctx, session, send, inbound.Payload)
	case "hint":
		return session.UseHint()
	case "ask":
		var payload askPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		answer, err := session.AskAbout(ctx, payload.Query)
		if err != nil {
			return err
		}
		send <- outboundMessage[any]{Type: "askResult", Payload: askResult{Answer: answer}}
		return nil
	case "skip":
		return session.SkipQuestion(ctx)
	case "replace":
		var payload indexPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.ReplaceQuestion(ctx, payload.Index)
	case "advance":
		return session.Advance()
	case "nextRound":
		return session.NextRound()
	case "startReview":
		return session.StartReview()
	case "setReviewIndex":
		var payload indexPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.SetReviewIndex(payload.Index)
	case "stopReview":
		session.StopReview()
		return nil
	case "requestReset":
		session.RequestReset()
		return nil
	case "requestClearHistory":
		session.RequestClearHistory()
		return nil
	case "confirm":
		session.ConfirmPending()
		return nil
	case "cancel":
		session.CancelPending()
		return nil
	case "dismissError":
		session.DismissError()
		return nil
	default:
		return errUnsupportedType
	}
}

// answer scores a choice selection against the current question, or hands a
// typed answer to the provider for grading.
func (h *WSHandler) answer(ctx context.Context, session *game.Session, send chan outboundMessage[any], raw json.RawMessage) error {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errInvalidPayload
	}

	if payload.OptionIndex == nil {
		eval, err := session.AnswerFreeResponse(ctx, payload.Text)
		if err != nil {
			return err
		}
		send <- outboundMessage[any]{Type: "evaluation", Payload: eval}
		return nil
	}

	question, err := session.CurrentQuestion()
	if err != nil {
		return err
	}
	correct := *payload.OptionIndex == question.CorrectAnswerIndex
	score := 0.0
	if correct {
		score = 1
	}
	return session.SubmitAnswer(domain.AnswerResult{
		Score:       score,
		Correct:     correct,
		OptionIndex: payload.OptionIndex,
	})
}
