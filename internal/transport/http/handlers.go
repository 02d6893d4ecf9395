package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizlab-service/internal/app"
	"quizlab-service/internal/domain"
)

// API exposes the teacher-facing authoring endpoints and the join-by-link
// entry point.
type API struct {
	quizzes          *app.QuizService
	defaultTimeLimit int // minutes, applied when a create request omits it
}

func NewAPI(quizzes *app.QuizService, defaultTimeLimit int) *API {
	return &API{quizzes: quizzes, defaultTimeLimit: defaultTimeLimit}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quizzes", a.handleQuizzes)
	mux.HandleFunc("/api/entry", a.handleEntry)
}

type questionPayload struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TimeLimit   int               `json:"timeLimit"`
	Questions   []questionPayload `json:"questions"`
}

type quizSummary struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	TimeLimit     int                  `json:"timeLimit"`
	QuestionCount int                  `json:"questionCount"`
	CreatedAt     string               `json:"createdAt"`
	ShareLink     string               `json:"shareLink"`
	Leaderboard   []domain.Participant `json:"leaderboard"`
}

func (a *API) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createQuiz(w, r)
	case http.MethodGet:
		a.listQuizzes(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TimeLimit == 0 {
		req.TimeLimit = a.defaultTimeLimit
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, domain.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	quiz, err := a.quizzes.CreateQuiz(r.Context(), req.Title, req.Description, req.TimeLimit, questions)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Printf("create quiz: %v", err)
		writeError(w, http.StatusInternalServerError, "quiz could not be saved")
		return
	}
	writeJSON(w, http.StatusCreated, a.summarize(quiz))
}

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.quizzes.ListQuizzes(r.Context())
	if err != nil {
		log.Printf("list quizzes: %v", err)
		writeError(w, http.StatusInternalServerError, "quizzes could not be loaded")
		return
	}
	summaries := make([]quizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, a.summarize(quiz))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleEntry implements join-by-link: a "quiz" query parameter directs
// the client straight to the student join flow with the code pre-filled.
func (a *API) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := r.URL.Query().Get("quiz")
	if code == "" {
		writeJSON(w, http.StatusOK, map[string]string{"mode": "home"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": "student", "code": code})
}

func (a *API) summarize(quiz domain.Quiz) quizSummary {
	return quizSummary{
		ID:            quiz.ID,
		Code:          quiz.Code,
		Title:         quiz.Title,
		Description:   quiz.Description,
		TimeLimit:     quiz.TimeLimitMinutes,
		QuestionCount: len(quiz.Questions),
		CreatedAt:     quiz.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ShareLink:     a.quizzes.ShareLink(quiz),
		Leaderboard:   a.quizzes.Leaderboard(quiz),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
