package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizlab-service/internal/app"
	"quizlab-service/internal/domain"
	"quizlab-service/internal/session"
)

// WSHandler runs one quiz session per websocket connection, translating
// presentation intents into session operations and session state back into
// renderable payloads.
type WSHandler struct {
	quizzes  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(quizzes *app.QuizService) *WSHandler {
	return &WSHandler{
		quizzes: quizzes,
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

type joinPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type joinedPayload struct {
	QuizTitle        string `json:"quizTitle"`
	Description      string `json:"description"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

type tickPayload struct {
	Remaining int `json:"remainingSeconds"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives a single student session until
// the connection closes. Every exit path tears the session down so a stale
// countdown can never fire afterwards.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// push delivers from any goroutine (read loop or timer callbacks)
	// without blocking teardown.
	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-done:
		case <-writerDone:
		}
	}

	sess := session.New(session.Config{
		Recorder: h.quizzes,
		OnTick: func(remaining int) {
			push(outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: remaining}})
		},
		OnComplete: func(res session.Result) {
			push(outboundMessage[any]{Type: "completed", Payload: res})
		},
		OnRecordError: func(err error) {
			push(outboundMessage[any]{Type: "warning", Payload: errorPayload{Message: "your score could not be saved, but it is shown below"}})
		},
	})

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "join":
			var payload joinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errMsg("invalid join payload"))
				continue
			}
			quiz, err := h.quizzes.FindByCode(r.Context(), payload.Code)
			if err != nil {
				if errors.Is(err, domain.ErrQuizNotFound) {
					push(errMsg("invalid quiz code"))
				} else {
					push(errMsg(err.Error()))
				}
				continue
			}
			if err := sess.Join(quiz, payload.Name); err != nil {
				push(errMsg(err.Error()))
				continue
			}
			push(outboundMessage[any]{Type: "joined", Payload: joinedPayload{
				QuizTitle:        quiz.Title,
				Description:      quiz.Description,
				QuestionCount:    len(quiz.Questions),
				TimeLimitSeconds: quiz.TimeLimitSeconds(),
			}})
			if err := sess.Begin(); err != nil {
				push(errMsg(err.Error()))
				continue
			}
			if snap := sess.Snapshot(); snap.Question != nil {
				push(outboundMessage[any]{Type: "question", Payload: snap.Question})
			}

		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errMsg("invalid select payload"))
				continue
			}
			sess.SelectOption(payload.Option)

		case "submit":
			err := sess.SubmitCurrentAnswer()
			switch {
			case errors.Is(err, domain.ErrNoSelection):
				push(errMsg("select an answer first"))
			case err != nil:
				push(errMsg(err.Error()))
			default:
				// Completion is delivered through OnComplete; only an
				// advanced question needs pushing here.
				if snap := sess.Snapshot(); snap.State == session.StateInProgress {
					push(outboundMessage[any]{Type: "question", Payload: snap.Question})
				}
			}

		case "leave":
			break readLoop

		default:
			push(errMsg("unsupported message type"))
		}
	}

	sess.Leave()
	close(done)
	<-writerDone
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
