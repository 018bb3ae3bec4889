package client

import (
	"context"
	"sync"
	"time"

	"github.com/skywatch/solarscope/internal/model"
)

// DefaultFeedbackDelay is how long answer feedback stays on screen before
// the quiz advances.
const DefaultFeedbackDelay = 1500 * time.Millisecond

// QuizPhase is the lifecycle state of a quiz session.
type QuizPhase int

const (
	QuizLoading QuizPhase = iota
	QuizPlaying
	QuizFeedback
	QuizSubmitting
	QuizScored
	QuizEmpty
	QuizFailed
)

// Overlay names the secondary panel currently shown over the quiz, if any.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayResults
	OverlayManage
)

// QuizController runs one quiz session: it walks the question list, shows
// per-answer feedback for a fixed delay, and submits the recorded answers
// when the last question is answered. All exported methods are safe for
// concurrent use; the feedback timer fires on its own goroutine.
//
// The question list is fetched once per category. Restart replays the same
// list without a re-fetch; switching categories discards everything.
type QuizController struct {
	mu    sync.Mutex
	api   *Client
	delay time.Duration

	gen        int
	phase      QuizPhase
	errMsg     string
	user       *model.Profile
	categories []string
	category   string
	questions  []model.Question
	index      int
	answers    map[int64]string
	score      int
	selected   string
	correct    bool
	result     *model.SubmitResponse
	submitErr  string
	overlay    Overlay
	results    []model.Result
	timer      *time.Timer

	onChange func()
}

// NewQuizController creates a controller with the standard feedback delay.
func NewQuizController(api *Client) *QuizController {
	return &QuizController{api: api, delay: DefaultFeedbackDelay, phase: QuizLoading}
}

// SetFeedbackDelay overrides how long feedback is shown. Zero advances
// immediately; useful for tests and non-interactive runs.
func (q *QuizController) SetFeedbackDelay(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delay = d
}

// OnChange registers a hook invoked after every state transition, including
// the timer-driven ones. The hook runs with the controller unlocked.
func (q *QuizController) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

func (q *QuizController) notify() {
	q.mu.Lock()
	fn := q.onChange
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Load resolves the session, fetches the category list, and starts the
// quiz in the given category (the first available one when empty). An
// anonymous session fails immediately with ErrNotAuthenticated; the quiz
// needs an identity to record results against.
func (q *QuizController) Load(ctx context.Context, category string) error {
	q.mu.Lock()
	q.gen++
	gen := q.gen
	q.phase = QuizLoading
	q.errMsg = ""
	q.stopTimerLocked()
	q.mu.Unlock()

	user, err := q.api.CheckAuth(ctx)
	if err != nil {
		return q.loadFailed(gen, err)
	}
	if user == nil {
		err := ErrNotAuthenticated
		q.loadFailed(gen, err)
		return err
	}
	categories, err := q.api.Categories(ctx)
	if err != nil {
		return q.loadFailed(gen, err)
	}

	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return nil
	}
	q.user = user
	q.categories = categories
	if category == "" && len(categories) > 0 {
		category = categories[0]
	}
	q.mu.Unlock()
	q.notify()

	if category == "" {
		q.mu.Lock()
		if gen == q.gen {
			q.phase = QuizEmpty
		}
		q.mu.Unlock()
		q.notify()
		return nil
	}
	return q.loadCategory(ctx, gen, category)
}

// SetCategory switches the quiz to another category, discarding all progress
// and fetching that category's questions.
func (q *QuizController) SetCategory(ctx context.Context, category string) error {
	q.mu.Lock()
	q.gen++
	gen := q.gen
	q.phase = QuizLoading
	q.errMsg = ""
	q.stopTimerLocked()
	q.mu.Unlock()
	q.notify()
	return q.loadCategory(ctx, gen, category)
}

func (q *QuizController) loadCategory(ctx context.Context, gen int, category string) error {
	questions, err := q.api.Questions(ctx, category)
	if err != nil {
		return q.loadFailed(gen, err)
	}

	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return nil
	}
	q.category = category
	q.questions = questions
	q.resetRunLocked()
	if len(questions) == 0 {
		q.phase = QuizEmpty
	} else {
		q.phase = QuizPlaying
	}
	q.mu.Unlock()
	q.notify()
	return nil
}

func (q *QuizController) loadFailed(gen int, err error) error {
	q.mu.Lock()
	if gen == q.gen {
		q.phase = QuizFailed
		q.errMsg = err.Error()
	}
	q.mu.Unlock()
	q.notify()
	return err
}

// Callers must hold q.mu.
func (q *QuizController) resetRunLocked() {
	q.index = 0
	q.answers = make(map[int64]string)
	q.score = 0
	q.selected = ""
	q.correct = false
	q.result = nil
	q.submitErr = ""
	q.overlay = OverlayNone
}

// Callers must hold q.mu.
func (q *QuizController) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Answer records the chosen option for the current question, shows feedback,
// and schedules the advance. Answers while feedback is up, or outside play,
// are ignored.
func (q *QuizController) Answer(ctx context.Context, option string) {
	q.mu.Lock()
	if q.phase != QuizPlaying || q.index >= len(q.questions) {
		q.mu.Unlock()
		return
	}
	cur := q.questions[q.index]
	q.answers[cur.ID] = option
	q.selected = option
	q.correct = option == cur.CorrectAnswer
	if q.correct {
		q.score++
	}
	q.phase = QuizFeedback
	gen := q.gen
	delay := q.delay
	q.stopTimerLocked()
	q.timer = time.AfterFunc(delay, func() {
		q.advance(ctx, gen)
	})
	q.mu.Unlock()
	q.notify()
}

// advance moves past the feedback pause: to the next question, or to
// submission after the last one.
func (q *QuizController) advance(ctx context.Context, gen int) {
	q.mu.Lock()
	if gen != q.gen || q.phase != QuizFeedback {
		q.mu.Unlock()
		return
	}
	q.selected = ""
	if q.index+1 < len(q.questions) {
		q.index++
		q.phase = QuizPlaying
		q.mu.Unlock()
		q.notify()
		return
	}
	q.phase = QuizSubmitting
	category := q.category
	answers := make(map[int64]string, len(q.answers))
	for id, a := range q.answers {
		answers[id] = a
	}
	q.mu.Unlock()
	q.notify()

	resp, err := q.api.SubmitQuiz(ctx, category, answers)

	// The final screen shows the locally tallied score regardless; a failed
	// submission only means the attempt went unrecorded.
	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.phase = QuizScored
	if err != nil {
		q.submitErr = err.Error()
	} else {
		q.result = &resp
	}
	q.mu.Unlock()
	q.notify()
}

// Restart replays the same question list from the top without re-fetching.
func (q *QuizController) Restart() {
	q.mu.Lock()
	q.stopTimerLocked()
	q.gen++
	q.resetRunLocked()
	if len(q.questions) == 0 {
		q.phase = QuizEmpty
	} else {
		q.phase = QuizPlaying
	}
	q.mu.Unlock()
	q.notify()
}

// ShowResults fetches the user's past attempts and opens the results panel.
func (q *QuizController) ShowResults(ctx context.Context) error {
	return q.openResults(ctx, q.api.MyResults)
}

// ShowAllResults fetches every user's attempts and opens the results panel.
// Admin only; the server rejects everyone else and the refusal lands in Err.
func (q *QuizController) ShowAllResults(ctx context.Context) error {
	return q.openResults(ctx, q.api.AllResults)
}

func (q *QuizController) openResults(ctx context.Context, fetch func(context.Context) ([]model.Result, error)) error {
	q.mu.Lock()
	gen := q.gen
	q.mu.Unlock()

	results, err := fetch(ctx)
	if err != nil {
		q.surface(gen, err)
		return err
	}

	q.mu.Lock()
	if gen == q.gen {
		q.results = results
		q.overlay = OverlayResults
	}
	q.mu.Unlock()
	q.notify()
	return nil
}

// CloseOverlay returns from the results or manage panel to the quiz.
func (q *QuizController) CloseOverlay() {
	q.mu.Lock()
	q.overlay = OverlayNone
	q.mu.Unlock()
	q.notify()
}

// OpenManage opens the question management panel. Only admins may mutate
// questions; the server enforces this, the panel just mirrors it.
func (q *QuizController) OpenManage() {
	q.mu.Lock()
	q.overlay = OverlayManage
	q.mu.Unlock()
	q.notify()
}

// AddQuestion creates a question in the current category and appends it to
// the active list, so it comes up later in this same run.
func (q *QuizController) AddQuestion(ctx context.Context, in model.QuestionInput) error {
	q.mu.Lock()
	gen := q.gen
	in.Category = q.category
	q.mu.Unlock()

	created, err := q.api.CreateQuestion(ctx, in)
	if err != nil {
		q.surface(gen, err)
		return err
	}

	q.mu.Lock()
	if gen == q.gen {
		q.questions = append(q.questions, created)
		if q.phase == QuizEmpty {
			q.resetRunLocked()
			q.overlay = OverlayManage
			q.phase = QuizPlaying
		}
	}
	q.mu.Unlock()
	q.notify()
	return nil
}

// UpdateQuestion saves edits to a question and refreshes it in place.
func (q *QuizController) UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput) error {
	q.mu.Lock()
	gen := q.gen
	in.Category = q.category
	q.mu.Unlock()

	updated, err := q.api.UpdateQuestion(ctx, id, in)
	if err != nil {
		q.surface(gen, err)
		return err
	}

	q.mu.Lock()
	if gen == q.gen {
		for i := range q.questions {
			if q.questions[i].ID == id {
				q.questions[i] = updated
				break
			}
		}
	}
	q.mu.Unlock()
	q.notify()
	return nil
}

// DeleteQuestion removes a question from the server and the active list.
// If the removal lands at or before the current position, the index is
// clamped so the run continues on a valid question; deleting the last
// remaining question empties the quiz.
func (q *QuizController) DeleteQuestion(ctx context.Context, id int64) error {
	q.mu.Lock()
	gen := q.gen
	q.mu.Unlock()

	if err := q.api.DeleteQuestion(ctx, id); err != nil {
		q.surface(gen, err)
		return err
	}

	q.mu.Lock()
	if gen == q.gen {
		removed := -1
		for i := range q.questions {
			if q.questions[i].ID == id {
				removed = i
				break
			}
		}
		if removed >= 0 {
			q.questions = append(q.questions[:removed], q.questions[removed+1:]...)
			delete(q.answers, id)
			if removed < q.index {
				q.index--
			}
			if q.index >= len(q.questions) && q.index > 0 {
				q.index = len(q.questions) - 1
			}
			if len(q.questions) == 0 {
				q.stopTimerLocked()
				q.phase = QuizEmpty
			}
		}
	}
	q.mu.Unlock()
	q.notify()
	return nil
}

func (q *QuizController) surface(gen int, err error) {
	q.mu.Lock()
	if gen == q.gen {
		q.errMsg = err.Error()
	}
	q.mu.Unlock()
	q.notify()
}

// DismissError clears the transient error message.
func (q *QuizController) DismissError() {
	q.mu.Lock()
	q.errMsg = ""
	q.mu.Unlock()
	q.notify()
}

// Phase returns the lifecycle state.
func (q *QuizController) Phase() QuizPhase {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.phase
}

// Err returns the current user-visible error message, or "".
func (q *QuizController) Err() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.errMsg
}

// User returns the resolved session identity.
func (q *QuizController) User() *model.Profile {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.user
}

// Categories returns the available quiz categories.
func (q *QuizController) Categories() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.categories))
	copy(out, q.categories)
	return out
}

// Category returns the active category.
func (q *QuizController) Category() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.category
}

// Current returns the question on screen and its 1-based position, or false
// when no question is active.
func (q *QuizController) Current() (model.Question, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.index >= len(q.questions) {
		return model.Question{}, 0, false
	}
	return q.questions[q.index], q.index + 1, true
}

// Total returns how many questions the active list holds.
func (q *QuizController) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.questions)
}

// Questions returns a snapshot of the active question list.
func (q *QuizController) Questions() []model.Question {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Question, len(q.questions))
	copy(out, q.questions)
	return out
}

// Feedback reports the selected option and whether it was correct. Valid
// only during the feedback pause.
func (q *QuizController) Feedback() (selected string, correct bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.selected, q.correct
}

// Score returns the locally tallied score so far.
func (q *QuizController) Score() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.score
}

// Result returns the server's submission receipt, nil when submission
// failed or has not happened yet.
func (q *QuizController) Result() *model.SubmitResponse {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.result
}

// SubmitErr returns why the final submission failed, or "".
func (q *QuizController) SubmitErr() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitErr
}

// Overlay returns the open secondary panel.
func (q *QuizController) Overlay() Overlay {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overlay
}

// Results returns the fetched past attempts, newest first.
func (q *QuizController) Results() []model.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Result, len(q.results))
	copy(out, q.results)
	return out
}

// Percentage returns the final score as a rounded percentage.
func (q *QuizController) Percentage() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.Percentage(q.score, len(q.questions))
}
