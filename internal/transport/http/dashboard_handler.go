package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizlab-service/internal/app"
	"quizlab-service/internal/storage"
)

// DashboardHandler streams the quiz list to a teacher dashboard, refreshing
// whenever the shared store reports a collection change. On the local-only
// store the subscription is a no-op and the client just gets the initial
// list.
type DashboardHandler struct {
	quizzes  *app.QuizService
	store    storage.Provider
	upgrader websocket.Upgrader
}

func NewDashboardHandler(quizzes *app.QuizService, store storage.Provider) *DashboardHandler {
	return &DashboardHandler{
		quizzes: quizzes,
		store:   store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *DashboardHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	notify := make(chan struct{}, 1)
	sub, err := h.store.SubscribeQuizzes(r.Context(), func() {
		// Coalesce bursts into one refresh.
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	if err != nil {
		log.Printf("dashboard subscribe: %v", err)
		return
	}
	defer sub.Unsubscribe()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.pushList(r, conn); err != nil {
		return
	}
	for {
		select {
		case <-notify:
			if err := h.pushList(r, conn); err != nil {
				return
			}
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *DashboardHandler) pushList(r *http.Request, conn *websocket.Conn) error {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		log.Printf("dashboard list: %v", err)
		return err
	}
	api := API{quizzes: h.quizzes}
	summaries := make([]quizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, api.summarize(quiz))
	}
	return conn.WriteJSON(outboundMessage[any]{Type: "quizzes", Payload: summaries})
}
