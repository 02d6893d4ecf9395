package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"quizlab-service/internal/app"
	"quizlab-service/internal/domain"
	"quizlab-service/internal/infra/sqlite"
)

func newTestQuizService(t *testing.T) (*app.QuizService, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return app.NewQuizService(store, "http://quizlab.test"), store
}

func newAPIServer(t *testing.T) (*httptest.Server, *app.QuizService) {
	t.Helper()
	service, _ := newTestQuizService(t)
	mux := http.NewServeMux()
	NewAPI(service, 5).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, service
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":       "Science Quiz",
		"description": "weekly check",
		"timeLimit":   5,
		"questions": []map[string]any{
			{"text": "What is 2 + 2?", "options": []string{"3", "4", "5", "6"}, "correctAnswer": 1},
			{"text": "Capital of France?", "options": []string{"Berlin", "Madrid", "Paris", "Rome"}, "correctAnswer": 2},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestCreateQuizEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t)

	resp := postJSON(t, srv.URL+"/api/quizzes", validCreateBody())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary quizSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.NotEmpty(t, summary.ID)
	require.Regexp(t, `^\d{6}$`, summary.Code)
	require.Equal(t, "Science Quiz", summary.Title)
	require.Equal(t, 2, summary.QuestionCount)
	require.Equal(t, "http://quizlab.test/?quiz="+summary.Code, summary.ShareLink)
	require.NotNil(t, summary.Leaderboard)
}

func TestCreateQuizEndpointAppliesDefaultTimeLimit(t *testing.T) {
	srv, _ := newAPIServer(t)

	body := validCreateBody()
	delete(body, "timeLimit")
	resp := postJSON(t, srv.URL+"/api/quizzes", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary quizSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Equal(t, 5, summary.TimeLimit)
}

func TestCreateQuizEndpointRejectsInvalidInput(t *testing.T) {
	srv, _ := newAPIServer(t)

	body := validCreateBody()
	body["title"] = "  "
	resp := postJSON(t, srv.URL+"/api/quizzes", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Contains(t, payload["error"], "title")
}

func TestListQuizzesEndpoint(t *testing.T) {
	srv, service := newAPIServer(t)

	quiz, err := service.CreateQuiz(context.Background(), "Quiz", "", 5, []domain.Question{
		{Text: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/quizzes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []quizSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, quiz.Code, summaries[0].Code)
}

func TestEntryModeSelection(t *testing.T) {
	srv, _ := newAPIServer(t)

	resp, err := http.Get(srv.URL + "/api/entry?quiz=123456")
	require.NoError(t, err)
	defer resp.Body.Close()
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "student", payload["mode"])
	require.Equal(t, "123456", payload["code"])

	resp, err = http.Get(srv.URL + "/api/entry")
	require.NoError(t, err)
	defer resp.Body.Close()
	var home map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&home))
	require.Equal(t, "home", home["mode"])
}
