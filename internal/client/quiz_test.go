package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/solarscope/internal/model"
)

func waitPhase(t *testing.T, q *QuizController, want QuizPhase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Phase() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %v, stuck at %v", want, q.Phase())
}

func TestQuizAnonymousLoad(t *testing.T) {
	c, _ := newTestBackend(t)

	q := NewQuizController(c)
	err := q.Load(context.Background(), "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if q.Phase() != QuizFailed {
		t.Errorf("expected QuizFailed, got %v", q.Phase())
	}
}

func TestQuizFullRun(t *testing.T) {
	c, s := newTestBackend(t)
	userID := seedUser(t, s, "user@example.com", model.UserRoleUser)
	q1 := seedQuestion(t, s, "planets", "Red planet?", "b")
	seedQuestion(t, s, "planets", "Biggest planet?", "c")
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	q.SetFeedbackDelay(0)
	if err := q.Load(ctx, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if q.Category() != "planets" {
		t.Fatalf("expected first category picked, got %q", q.Category())
	}
	if q.Phase() != QuizPlaying || q.Total() != 2 {
		t.Fatalf("phase %v, total %d", q.Phase(), q.Total())
	}

	cur, n, ok := q.Current()
	if !ok || n != 1 || cur.ID != q1 {
		t.Fatalf("current = %+v, n=%d, ok=%v", cur, n, ok)
	}

	// Right answer: feedback marks it correct, then the run advances.
	q.Answer(ctx, "b")
	if sel, correct := q.Feedback(); sel != "b" || !correct {
		t.Errorf("feedback = %q, %v", sel, correct)
	}
	if q.Score() != 1 {
		t.Errorf("score = %d after correct answer", q.Score())
	}
	waitPhase(t, q, QuizPlaying)
	if _, n, _ := q.Current(); n != 2 {
		t.Fatalf("expected question 2, got %d", n)
	}

	// Wrong answer on the last question submits the run.
	q.Answer(ctx, "a")
	if _, correct := q.Feedback(); correct {
		t.Error("expected wrong answer")
	}
	waitPhase(t, q, QuizScored)

	if q.Score() != 1 || q.Percentage() != 50 {
		t.Errorf("score %d, percentage %d, want 1 and 50", q.Score(), q.Percentage())
	}
	if q.SubmitErr() != "" {
		t.Errorf("unexpected submit error %q", q.SubmitErr())
	}
	res := q.Result()
	if res == nil || res.Score != 1 || res.Total != 2 {
		t.Errorf("result = %+v", res)
	}

	// The server recorded the attempt.
	recorded, err := s.ListUserResults(userID)
	if err != nil {
		t.Fatalf("ListUserResults: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Score != 1 {
		t.Errorf("recorded = %+v", recorded)
	}

	// Restart replays the same questions without a re-fetch.
	q.Restart()
	if q.Phase() != QuizPlaying || q.Score() != 0 || q.Total() != 2 {
		t.Errorf("after restart: phase %v, score %d, total %d", q.Phase(), q.Score(), q.Total())
	}
	if _, n, _ := q.Current(); n != 1 {
		t.Errorf("expected restart at question 1, got %d", n)
	}
}

func TestQuizFeedbackIgnoresAnswers(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "user@example.com", model.UserRoleUser)
	seedQuestion(t, s, "planets", "Red planet?", "b")
	seedQuestion(t, s, "planets", "Biggest planet?", "c")
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	q.SetFeedbackDelay(time.Hour)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	q.Answer(ctx, "b")
	if q.Phase() != QuizFeedback || q.Score() != 1 {
		t.Fatalf("phase %v, score %d", q.Phase(), q.Score())
	}

	// A second press during the pause changes nothing.
	q.Answer(ctx, "c")
	if q.Score() != 1 {
		t.Errorf("score changed during feedback: %d", q.Score())
	}
	if q.Phase() != QuizFeedback {
		t.Errorf("phase changed during feedback: %v", q.Phase())
	}
	if sel, _ := q.Feedback(); sel != "b" {
		t.Errorf("selection changed during feedback: %q", sel)
	}
}

func TestQuizNoQuestions(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "user@example.com", model.UserRoleUser)
	loginAs(t, c, "user@example.com")

	q := NewQuizController(c)
	if err := q.Load(context.Background(), ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if q.Phase() != QuizEmpty {
		t.Errorf("expected QuizEmpty with no questions anywhere, got %v", q.Phase())
	}
}

func TestQuizCategorySwitch(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "user@example.com", model.UserRoleUser)
	seedQuestion(t, s, "planets", "Red planet?", "b")
	seedQuestion(t, s, "comets", "Halley period?", "a")
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	q.SetFeedbackDelay(time.Hour)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	q.Answer(ctx, "b")
	if q.Score() != 1 {
		t.Fatalf("score = %d", q.Score())
	}

	// Switching category discards all progress, even mid-feedback.
	if err := q.SetCategory(ctx, "comets"); err != nil {
		t.Fatalf("SetCategory: %v", err)
	}
	if q.Category() != "comets" || q.Phase() != QuizPlaying {
		t.Fatalf("category %q, phase %v", q.Category(), q.Phase())
	}
	if q.Score() != 0 || q.Total() != 1 {
		t.Errorf("score %d, total %d after switch", q.Score(), q.Total())
	}
}

func TestQuizDeleteQuestionClamps(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "admin@example.com", model.UserRoleAdmin)
	q1 := seedQuestion(t, s, "planets", "Red planet?", "b")
	q2 := seedQuestion(t, s, "planets", "Biggest planet?", "c")
	loginAs(t, c, "admin@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	q.SetFeedbackDelay(0)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Advance to the second (last) question, then delete it out from under
	// the run. The position clamps back to a valid question.
	q.Answer(ctx, "b")
	waitPhase(t, q, QuizPlaying)
	if _, n, _ := q.Current(); n != 2 {
		t.Fatalf("expected to be on question 2, got %d", n)
	}
	if err := q.DeleteQuestion(ctx, q2); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	cur, n, ok := q.Current()
	if !ok || n != 1 || cur.ID != q1 {
		t.Fatalf("after clamp: current %+v, n=%d, ok=%v", cur, n, ok)
	}
	if q.Total() != 1 {
		t.Errorf("total = %d", q.Total())
	}

	// Deleting the last remaining question empties the quiz.
	if err := q.DeleteQuestion(ctx, q1); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if q.Phase() != QuizEmpty {
		t.Errorf("expected QuizEmpty, got %v", q.Phase())
	}
}

func TestQuizManageQuestions(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "admin@example.com", model.UserRoleAdmin)
	q1 := seedQuestion(t, s, "planets", "Red planet?", "b")
	loginAs(t, c, "admin@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	q.OpenManage()
	if q.Overlay() != OverlayManage {
		t.Fatalf("overlay = %v", q.Overlay())
	}

	// New questions join the current run.
	if err := q.AddQuestion(ctx, model.QuestionInput{
		Question: "Hottest planet?",
		OptionA:  "Mercury", OptionB: "Mars", OptionC: "Venus", OptionD: "Jupiter",
		CorrectAnswer: "c",
	}); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if q.Total() != 2 {
		t.Fatalf("total = %d after add", q.Total())
	}

	if err := q.UpdateQuestion(ctx, q1, model.QuestionInput{
		Question: "Which planet is called the Red Planet?",
		OptionA:  "Venus", OptionB: "Mars", OptionC: "Jupiter", OptionD: "Mercury",
		CorrectAnswer: "b",
	}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	questions := q.Questions()
	if questions[0].Question != "Which planet is called the Red Planet?" {
		t.Errorf("update not reflected: %+v", questions[0])
	}

	q.CloseOverlay()
	if q.Overlay() != OverlayNone {
		t.Errorf("overlay = %v after close", q.Overlay())
	}
}

func TestQuizResultsOverlay(t *testing.T) {
	c, s := newTestBackend(t)
	userID := seedUser(t, s, "user@example.com", model.UserRoleUser)
	seedQuestion(t, s, "planets", "Red planet?", "b")
	if _, err := s.InsertResult(userID, "planets", 3, 4); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := q.ShowResults(ctx); err != nil {
		t.Fatalf("ShowResults: %v", err)
	}
	if q.Overlay() != OverlayResults {
		t.Fatalf("overlay = %v", q.Overlay())
	}
	results := q.Results()
	if len(results) != 1 || results[0].Score != 3 || results[0].Percentage != 75 {
		t.Errorf("results = %+v", results)
	}
}

func TestQuizAllResultsOverlay(t *testing.T) {
	c, s := newTestBackend(t)
	adminID := seedUser(t, s, "admin@example.com", model.UserRoleAdmin)
	userID := seedUser(t, s, "user@example.com", model.UserRoleUser)
	seedQuestion(t, s, "planets", "Red planet?", "b")
	if _, err := s.InsertResult(userID, "planets", 1, 2); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	if _, err := s.InsertResult(adminID, "planets", 2, 2); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	loginAs(t, c, "admin@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Admins see every user's attempts, with the owner identified.
	if err := q.ShowAllResults(ctx); err != nil {
		t.Fatalf("ShowAllResults: %v", err)
	}
	if q.Overlay() != OverlayResults {
		t.Fatalf("overlay = %v", q.Overlay())
	}
	results := q.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	for _, r := range results {
		if r.Email == "" || r.Username == "" {
			t.Errorf("expected owner identity on result, got %+v", r)
		}
	}
}

func TestQuizAllResultsRequiresAdmin(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "user@example.com", model.UserRoleUser)
	seedQuestion(t, s, "planets", "Red planet?", "b")
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	q := NewQuizController(c)
	if err := q.Load(ctx, "planets"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := q.ShowAllResults(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 *APIError, got %v", err)
	}
	if q.Err() == "" {
		t.Error("expected refusal surfaced")
	}
	// The quiz itself is untouched.
	if q.Overlay() != OverlayNone || q.Phase() != QuizPlaying {
		t.Errorf("overlay %v, phase %v", q.Overlay(), q.Phase())
	}
}

// TestQuizSubmitFailureStillScores drives the controller against a backend
// whose submit endpoint is broken: the user still gets their final score.
func TestQuizSubmitFailureStillScores(t *testing.T) {
	question := model.Question{
		ID:       1,
		Category: "planets",
		Question: "Red planet?",
		Options:  map[string]string{"a": "Venus", "b": "Mars", "c": "Jupiter", "d": "Mercury"},
		CorrectAnswer: "b",
	}

	r := chi.NewRouter()
	r.Get("/check-auth", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": true,
			"user":          model.Profile{ID: 1, Username: "u", Role: model.UserRoleUser},
		})
	})
	r.Get("/quiz/categories", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]string{"planets"})
	})
	r.Get("/quiz/{category}", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]model.Question{question})
	})
	r.Post("/quiz/submit", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	q := NewQuizController(c)
	q.SetFeedbackDelay(0)
	ctx := context.Background()
	if err := q.Load(ctx, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}

	q.Answer(ctx, "b")
	waitPhase(t, q, QuizScored)

	if q.Score() != 1 || q.Percentage() != 100 {
		t.Errorf("score %d, percentage %d", q.Score(), q.Percentage())
	}
	if q.SubmitErr() == "" {
		t.Error("expected submit error surfaced")
	}
	if q.Result() != nil {
		t.Errorf("expected nil server receipt, got %+v", q.Result())
	}
}
