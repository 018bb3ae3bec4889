package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/skywatch/solarscope/internal/handler"
	"github.com/skywatch/solarscope/internal/model"
	"github.com/skywatch/solarscope/internal/store"
)

// newTestBackend spins up the real API over an in-memory database, so
// client tests exercise the actual wire contract.
func newTestBackend(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h := handler.New(s, handler.Config{})
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c, s
}

func seedUser(t *testing.T, s *store.Store, email string, role model.UserRole) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := s.CreateUser(model.User{
		Username:     "user-" + email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedQuestion(t *testing.T, s *store.Store, category, question, correct string) int64 {
	t.Helper()
	id, err := s.InsertQuestion(model.QuestionInput{
		Category:      category,
		Question:      question,
		OptionA:       "A " + question,
		OptionB:       "B " + question,
		OptionC:       "C " + question,
		OptionD:       "D " + question,
		CorrectAnswer: correct,
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return id
}

func loginAs(t *testing.T, c *Client, email string) *model.Profile {
	t.Helper()
	user, err := c.Login(context.Background(), email, "pw")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return user
}

func TestAuthRoundTrip(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "alice@example.com", model.UserRoleUser)
	ctx := context.Background()

	// Anonymous session resolves to nil without error.
	user, err := c.CheckAuth(ctx)
	if err != nil {
		t.Fatalf("CheckAuth: %v", err)
	}
	if user != nil {
		t.Fatalf("expected anonymous, got %+v", user)
	}
	if c.SessionToken() != "" {
		t.Errorf("expected no session token before login")
	}

	user = loginAs(t, c, "alice@example.com")
	if user.Email != "alice@example.com" {
		t.Errorf("login returned %+v", user)
	}
	if c.SessionToken() == "" {
		t.Error("expected session token after login")
	}

	user, err = c.CheckAuth(ctx)
	if err != nil {
		t.Fatalf("CheckAuth after login: %v", err)
	}
	if user == nil || user.Email != "alice@example.com" {
		t.Errorf("expected alice, got %+v", user)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	user, err = c.CheckAuth(ctx)
	if err != nil {
		t.Fatalf("CheckAuth after logout: %v", err)
	}
	if user != nil {
		t.Errorf("expected anonymous after logout, got %+v", user)
	}
}

func TestLoginFailureIsAPIError(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "alice@example.com", model.UserRoleUser)

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != 401 || apiErr.Message != "Invalid credentials" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSessionTokenReuse(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "alice@example.com", model.UserRoleUser)
	loginAs(t, c, "alice@example.com")
	token := c.SessionToken()

	// A fresh client with the saved token is already authenticated.
	c2, err := New(c.base.String())
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	c2.SetSessionToken(token)
	user, err := c2.CheckAuth(context.Background())
	if err != nil {
		t.Fatalf("CheckAuth: %v", err)
	}
	if user == nil || user.Email != "alice@example.com" {
		t.Errorf("expected restored session, got %+v", user)
	}
}

func TestBodyOperations(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "admin@example.com", model.UserRoleAdmin)
	loginAs(t, c, "admin@example.com")
	ctx := context.Background()

	id, err := c.CreateBody(ctx, model.Asteroids, map[string]string{
		"name": "Ceres", "discovery_year": "1801",
	})
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	list, err := c.ListBodies(ctx, model.Asteroids)
	if err != nil {
		t.Fatalf("ListBodies: %v", err)
	}
	if len(list) != 1 || list[0].Attr("name") != "Ceres" {
		t.Fatalf("list = %+v", list)
	}

	// An update without an ID never reaches the network.
	err = c.UpdateBody(ctx, model.Asteroids, model.Body{Attrs: map[string]string{"name": "x"}})
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}

	b := list[0]
	b.Attrs["details"] = "Largest asteroid."
	if err := c.UpdateBody(ctx, model.Asteroids, b); err != nil {
		t.Fatalf("UpdateBody: %v", err)
	}

	if err := c.DeleteBody(ctx, model.Asteroids, id); err != nil {
		t.Fatalf("DeleteBody: %v", err)
	}
	list, err = c.ListBodies(ctx, model.Asteroids)
	if err != nil {
		t.Fatalf("ListBodies: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list after delete, got %+v", list)
	}
}

func TestQuizOperations(t *testing.T) {
	c, s := newTestBackend(t)
	seedUser(t, s, "user@example.com", model.UserRoleUser)
	q1 := seedQuestion(t, s, "planets", "Red planet?", "b")
	q2 := seedQuestion(t, s, "planets", "Biggest planet?", "c")
	loginAs(t, c, "user@example.com")
	ctx := context.Background()

	cats, err := c.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0] != "planets" {
		t.Errorf("categories = %v", cats)
	}

	questions, err := c.Questions(ctx, "planets")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	resp, err := c.SubmitQuiz(ctx, "planets", map[int64]string{q1: "b", q2: "a"})
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if resp.Score != 1 || resp.Total != 2 || resp.Percentage != 50 {
		t.Errorf("submit = %+v, want 1/2 (50%%)", resp)
	}

	results, err := c.MyResults(ctx)
	if err != nil {
		t.Fatalf("MyResults: %v", err)
	}
	if len(results) != 1 || results[0].Score != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ss := NewSessionStore(path)

	// Nothing saved yet.
	user, token := ss.Restore()
	if user != nil || token != "" {
		t.Fatalf("expected empty restore, got %+v, %q", user, token)
	}

	profile := model.Profile{ID: 7, Username: "alice", Email: "alice@example.com", Role: model.UserRoleUser}
	if err := ss.Save(profile, "tok123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	user, token = ss.Restore()
	if user == nil || user.Username != "alice" || token != "tok123" {
		t.Errorf("restore = %+v, %q", user, token)
	}

	if err := ss.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	user, token = ss.Restore()
	if user != nil || token != "" {
		t.Errorf("expected empty after clear, got %+v, %q", user, token)
	}
	// Clearing twice is fine.
	if err := ss.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestSessionStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ss := NewSessionStore(path)
	if err := ss.Save(model.Profile{ID: 1, Username: "x"}, "tok"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Truncate to junk; restore discards it.
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	user, token := ss.Restore()
	if user != nil || token != "" {
		t.Errorf("expected corrupt session discarded, got %+v, %q", user, token)
	}
}
