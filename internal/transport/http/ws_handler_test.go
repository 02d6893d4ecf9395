package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"quizlab-service/internal/domain"
	"quizlab-service/internal/session"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, handler http.HandlerFunc) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "payload": json.RawMessage(data)}))
}

// readUntil skips countdown ticks, which interleave with everything else.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) envelope {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var env envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == msgType {
			return env
		}
		if env.Type != "tick" {
			t.Fatalf("expected %q, got %q: %s", msgType, env.Type, env.Payload)
		}
	}
}

func TestSessionOverWebsocket(t *testing.T) {
	service, _ := newTestQuizService(t)
	quiz, err := service.CreateQuiz(context.Background(), "Science Quiz", "", 5, []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1},
		{Text: "Capital of France?", Options: []string{"Berlin", "Madrid", "Paris", "Rome"}, CorrectAnswer: 3},
	})
	require.NoError(t, err)

	conn := dialWS(t, NewWSHandler(service).ServeWS)
	sendMsg(t, conn, "join", map[string]string{"code": quiz.Code, "name": "Alice"})

	env := readUntil(t, conn, "joined")
	var joined joinedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &joined))
	require.Equal(t, "Science Quiz", joined.QuizTitle)
	require.Equal(t, 2, joined.QuestionCount)
	require.Equal(t, 300, joined.TimeLimitSeconds)

	env = readUntil(t, conn, "question")
	var question session.QuestionView
	require.NoError(t, json.Unmarshal(env.Payload, &question))
	require.Equal(t, 0, question.Index)
	require.Equal(t, 2, question.Total)
	require.Equal(t, "What is 2 + 2?", question.Text)

	sendMsg(t, conn, "select", map[string]int{"option": 1})
	sendMsg(t, conn, "submit", struct{}{})

	env = readUntil(t, conn, "question")
	require.NoError(t, json.Unmarshal(env.Payload, &question))
	require.Equal(t, 1, question.Index)

	sendMsg(t, conn, "select", map[string]int{"option": 0})
	sendMsg(t, conn, "submit", struct{}{})

	env = readUntil(t, conn, "completed")
	var result session.Result
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	require.Equal(t, 1, result.Score)
	require.Equal(t, 2, result.Total)
	require.Equal(t, 50, result.Percentage)
	require.Equal(t, "Alice", result.StudentName)
	require.Len(t, result.Review, 2)
	require.True(t, result.Review[0].Correct)
	require.False(t, result.Review[1].Correct)

	// The attempt was persisted.
	stored, err := service.FindByCode(context.Background(), quiz.Code)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 1)
	require.Equal(t, "Alice", stored.Participants[0].Name)
	require.Equal(t, 1, stored.Participants[0].Score)
}

func TestJoinWithUnknownCode(t *testing.T) {
	service, _ := newTestQuizService(t)

	conn := dialWS(t, NewWSHandler(service).ServeWS)
	sendMsg(t, conn, "join", map[string]string{"code": "000000", "name": "Alice"})

	env := readUntil(t, conn, "error")
	var payload errorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "invalid quiz code", payload.Message)
}

func TestSubmitWithoutSelection(t *testing.T) {
	service, _ := newTestQuizService(t)
	quiz, err := service.CreateQuiz(context.Background(), "Quiz", "", 5, []domain.Question{
		{Text: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)

	conn := dialWS(t, NewWSHandler(service).ServeWS)
	sendMsg(t, conn, "join", map[string]string{"code": quiz.Code, "name": "Alice"})
	readUntil(t, conn, "question")

	sendMsg(t, conn, "submit", struct{}{})
	env := readUntil(t, conn, "error")
	var payload errorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "select an answer first", payload.Message)
}

func TestDashboardStreamsQuizList(t *testing.T) {
	service, store := newTestQuizService(t)
	quiz, err := service.CreateQuiz(context.Background(), "Quiz", "", 5, []domain.Question{
		{Text: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)

	conn := dialWS(t, NewDashboardHandler(service, store).ServeWS)

	env := readUntil(t, conn, "quizzes")
	var summaries []quizSummary
	require.NoError(t, json.Unmarshal(env.Payload, &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, quiz.Code, summaries[0].Code)
}
