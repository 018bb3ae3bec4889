package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/skywatch/solarscope/internal/model"
)

// Client issues credentialed JSON requests against the backend. Every call
// is a fresh round trip: no retries, no caching, no timeout beyond the
// transport default. The cookie jar carries the session cookie the same way
// a browser would.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:5000".
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{base: base, http: &http.Client{Jar: jar}}, nil
}

// do performs one request. Non-2xx responses become *APIError with the
// server's {error} message when present; transport failures pass through.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// SessionToken returns the current session cookie value, or "".
func (c *Client) SessionToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == "session" {
			return cookie.Value
		}
	}
	return ""
}

// SetSessionToken seeds the cookie jar with a previously saved token.
func (c *Client) SetSessionToken(token string) {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: "session", Value: token, Path: "/"}})
}

// CheckAuth asks the server who we are. A nil profile means anonymous.
func (c *Client) CheckAuth(ctx context.Context) (*model.Profile, error) {
	var resp struct {
		Authenticated bool          `json:"authenticated"`
		User          model.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/check-auth", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Authenticated {
		return nil, nil
	}
	return &resp.User, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Profile, error) {
	var resp struct {
		Success bool          `json:"success"`
		User    model.Profile `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Signup registers a new account and returns the server's message.
func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/signup", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout clears the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// ListBodies fetches a domain collection.
func (c *Client) ListBodies(ctx context.Context, d model.Domain) ([]model.Body, error) {
	var bodies []model.Body
	if err := c.do(ctx, http.MethodGet, "/"+d.Name, nil, &bodies); err != nil {
		return nil, err
	}
	return bodies, nil
}

// CreateBody creates a record and returns the server-assigned ID.
func (c *Client) CreateBody(ctx context.Context, d model.Domain, attrs map[string]string) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/"+d.Name, model.Body{Attrs: attrs}, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateBody replaces the record with b.ID on the server.
func (c *Client) UpdateBody(ctx context.Context, d model.Domain, b model.Body) error {
	if b.ID == 0 {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodPut, "/"+d.Name+"/"+strconv.FormatInt(b.ID, 10), b, nil)
}

// DeleteBody removes a record by ID.
func (c *Client) DeleteBody(ctx context.Context, d model.Domain, id int64) error {
	return c.do(ctx, http.MethodDelete, "/"+d.Name+"/"+strconv.FormatInt(id, 10), nil, nil)
}

// Categories lists the quiz categories that have questions.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/quiz/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Questions fetches the question set of a category.
func (c *Client) Questions(ctx context.Context, category string) ([]model.Question, error) {
	var questions []model.Question
	if err := c.do(ctx, http.MethodGet, "/quiz/"+category, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// CreateQuestion adds a question and returns its shaped form with the new ID.
func (c *Client) CreateQuestion(ctx context.Context, in model.QuestionInput) (model.Question, error) {
	var resp struct {
		ID       int64          `json:"id"`
		Question model.Question `json:"question"`
	}
	if err := c.do(ctx, http.MethodPost, "/quiz", in, &resp); err != nil {
		return model.Question{}, err
	}
	if resp.Question.ID == 0 {
		resp.Question = in.Shape(resp.ID)
	}
	return resp.Question, nil
}

// UpdateQuestion replaces a question by ID.
func (c *Client) UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput) (model.Question, error) {
	var resp struct {
		Question model.Question `json:"question"`
	}
	if err := c.do(ctx, http.MethodPut, "/quiz/"+strconv.FormatInt(id, 10), in, &resp); err != nil {
		return model.Question{}, err
	}
	if resp.Question.ID == 0 {
		resp.Question = in.Shape(id)
	}
	return resp.Question, nil
}

// DeleteQuestion removes a question by ID.
func (c *Client) DeleteQuestion(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/quiz/"+strconv.FormatInt(id, 10), nil, nil)
}

// SubmitQuiz sends the chosen answers for a completed run-through.
func (c *Client) SubmitQuiz(ctx context.Context, category string, answers map[int64]string) (model.SubmitResponse, error) {
	wire := make(map[string]string, len(answers))
	for id, key := range answers {
		wire[strconv.FormatInt(id, 10)] = key
	}
	var resp model.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/quiz/submit", model.SubmitRequest{Category: category, Answers: wire}, &resp)
	return resp, err
}

// MyResults fetches the caller's own past results.
func (c *Client) MyResults(ctx context.Context) ([]model.Result, error) {
	var resp struct {
		Results []model.Result `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/quiz/results", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// AllResults fetches every user's results (admin only).
func (c *Client) AllResults(ctx context.Context) ([]model.Result, error) {
	var results []model.Result
	if err := c.do(ctx, http.MethodGet, "/admin/quiz-results", nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}
