package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skywatch/solarscope/internal/client"
	appI18n "github.com/skywatch/solarscope/internal/i18n"
	"github.com/skywatch/solarscope/internal/model"
)

func quizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take a quiz from the terminal",
		RunE:  runQuiz,
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:5000", "API server base URL")
	f.StringP("category", "c", "", "Quiz category (default: first available)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("session-file", "", "Saved session path (default: user config dir)")
	f.Duration("feedback-delay", client.DefaultFeedbackDelay, "How long to show answer feedback")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))

	api, err := client.New(v.GetString("server"))
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	sessionPath := v.GetString("session-file")
	if sessionPath == "" {
		sessionPath, err = client.DefaultSessionPath()
		if err != nil {
			return fmt.Errorf("resolve session path: %w", err)
		}
	}
	sessions := client.NewSessionStore(sessionPath)

	in := bufio.NewReader(os.Stdin)
	user, err := ensureLogin(ctx, api, sessions, in)
	if err != nil {
		return err
	}
	fmt.Println(appI18n.Td(ctx, "WelcomeUser", map[string]any{"Name": user.Username}))

	quiz := client.NewQuizController(api)
	quiz.SetFeedbackDelay(v.GetDuration("feedback-delay"))

	// Phase transitions arrive from the feedback timer's goroutine too; the
	// channel wakes the prompt loop without busy-waiting.
	changed := make(chan struct{}, 1)
	quiz.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	if err := quiz.Load(ctx, v.GetString("category")); err != nil {
		return err
	}
	if total := quiz.Total(); total > 0 {
		fmt.Println(appI18n.Tp(ctx, "QuestionsAvailable", total))
	}

	return playLoop(ctx, quiz, in, changed)
}

// ensureLogin restores a saved session or prompts for credentials until a
// login succeeds.
func ensureLogin(ctx context.Context, api *client.Client, sessions *client.SessionStore, in *bufio.Reader) (*model.Profile, error) {
	if _, token := sessions.Restore(); token != "" {
		api.SetSessionToken(token)
		if user, err := api.CheckAuth(ctx); err == nil && user != nil {
			return user, nil
		}
		// Stale token; fall through to a fresh login.
		_ = sessions.Clear()
	}

	fmt.Println(appI18n.T(ctx, "LoginPrompt"))
	for {
		fmt.Print(appI18n.T(ctx, "EmailPrompt"))
		email, err := readLine(in)
		if err != nil {
			return nil, err
		}
		fmt.Print(appI18n.T(ctx, "PasswordPrompt"))
		password, err := readLine(in)
		if err != nil {
			return nil, err
		}

		user, err := api.Login(ctx, email, password)
		if err != nil {
			fmt.Println(appI18n.Td(ctx, "LoginFailed", map[string]any{"Error": err.Error()}))
			continue
		}
		if err := sessions.Save(*user, api.SessionToken()); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return user, nil
	}
}

func playLoop(ctx context.Context, quiz *client.QuizController, in *bufio.Reader, changed <-chan struct{}) error {
	for {
		switch quiz.Phase() {
		case client.QuizLoading, client.QuizSubmitting:
			<-changed

		case client.QuizFailed:
			fmt.Fprintln(os.Stderr, quiz.Err())
			return fmt.Errorf("quiz unavailable")

		case client.QuizEmpty:
			fmt.Println(appI18n.T(ctx, "NoQuestions"))
			return nil

		case client.QuizPlaying:
			if err := promptAnswer(ctx, quiz, in); err != nil {
				return err
			}

		case client.QuizFeedback:
			// The controller advances on its own once the delay elapses.
			<-changed

		case client.QuizScored:
			done, err := showScore(ctx, quiz, in)
			if err != nil || done {
				return err
			}
		}
	}
}

func promptAnswer(ctx context.Context, quiz *client.QuizController, in *bufio.Reader) error {
	q, n, ok := quiz.Current()
	if !ok {
		return nil
	}
	fmt.Println()
	fmt.Println(appI18n.Td(ctx, "QuestionN", map[string]any{"N": n, "Total": quiz.Total()}))
	fmt.Println(q.Question)
	for _, key := range model.OptionKeys {
		fmt.Printf("  %s) %s\n", key, q.Options[key])
	}

	for {
		fmt.Print(appI18n.T(ctx, "AnswerPrompt"))
		line, err := readLine(in)
		if err != nil {
			return err
		}
		answer := strings.ToLower(line)

		switch {
		case answer == "quit" || answer == "q":
			fmt.Println(appI18n.T(ctx, "Goodbye"))
			os.Exit(0)
		case answer == "results":
			if err := showResults(ctx, quiz); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		case strings.HasPrefix(answer, "cat "):
			name := strings.TrimSpace(strings.TrimPrefix(answer, "cat "))
			if err := switchCategory(ctx, quiz, name); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			return nil
		}

		if !validOption(answer) {
			continue
		}
		quiz.Answer(ctx, answer)
		_, correct := quiz.Feedback()
		if correct {
			fmt.Println(appI18n.T(ctx, "CorrectAnswer"))
		} else {
			fmt.Println(appI18n.Td(ctx, "WrongAnswer", map[string]any{
				"Answer": q.CorrectAnswer + ") " + q.Options[q.CorrectAnswer],
			}))
		}
		return nil
	}
}

func showScore(ctx context.Context, quiz *client.QuizController, in *bufio.Reader) (done bool, err error) {
	fmt.Println()
	fmt.Println(appI18n.Td(ctx, "FinalScore", map[string]any{
		"Score":   quiz.Score(),
		"Total":   quiz.Total(),
		"Percent": quiz.Percentage(),
	}))
	if msg := quiz.SubmitErr(); msg != "" {
		fmt.Println(appI18n.Td(ctx, "SubmitFailed", map[string]any{"Error": msg}))
	}

	fmt.Print(appI18n.T(ctx, "PlayAgainPrompt"))
	line, err := readLine(in)
	if err != nil {
		return true, err
	}
	if strings.ToLower(line) == "y" {
		quiz.Restart()
		return false, nil
	}
	fmt.Println(appI18n.T(ctx, "Goodbye"))
	return true, nil
}

// showResults prints past attempts: admins get everyone's, others their own.
func showResults(ctx context.Context, quiz *client.QuizController) error {
	admin := quiz.User() != nil && quiz.User().IsAdmin()
	var err error
	if admin {
		err = quiz.ShowAllResults(ctx)
	} else {
		err = quiz.ShowResults(ctx)
	}
	if err != nil {
		return err
	}
	results := quiz.Results()
	quiz.CloseOverlay()
	if len(results) == 0 {
		fmt.Println(appI18n.T(ctx, "NoResults"))
		return nil
	}
	header, line := "ResultsHeader", "ResultLine"
	if admin {
		header, line = "AllResultsHeader", "AllResultLine"
	}
	fmt.Println(appI18n.T(ctx, header))
	for _, r := range results {
		data := map[string]any{
			"Category": r.Category,
			"Score":    r.Score,
			"Total":    r.Total,
			"Percent":  r.Percentage,
			"Date":     r.TakenAt.Format(time.DateOnly),
		}
		if admin {
			data["User"] = r.Username
		}
		fmt.Println("  " + appI18n.Td(ctx, line, data))
	}
	return nil
}

func switchCategory(ctx context.Context, quiz *client.QuizController, name string) error {
	for _, c := range quiz.Categories() {
		if strings.EqualFold(c, name) {
			fmt.Println(appI18n.Td(ctx, "CategoryHeader", map[string]any{"Category": c}))
			if err := quiz.SetCategory(ctx, c); err != nil {
				return err
			}
			fmt.Println(appI18n.Tp(ctx, "QuestionsAvailable", quiz.Total()))
			return nil
		}
	}
	return fmt.Errorf("%s", appI18n.Td(ctx, "UnknownCategory", map[string]any{
		"Category":   name,
		"Categories": strings.Join(quiz.Categories(), ", "),
	}))
}

func validOption(answer string) bool {
	for _, key := range model.OptionKeys {
		if answer == key {
			return true
		}
	}
	return false
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
