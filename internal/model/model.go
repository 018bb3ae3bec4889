package model

import (
	"context"
	"fmt"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleUser is a regular quiz-taking user.
	UserRoleUser UserRole = "user"
	// UserRoleAdmin can manage content and questions and view all results.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user as stored server-side.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// Profile returns the wire-visible identity for this user.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Profile is the authenticated identity as seen by clients: what /check-auth
// returns and what the client keeps between runs.
type Profile struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// AuthSession represents a server-side authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// OptionKeys are the fixed answer slots of a question, in display order.
var OptionKeys = []string{"a", "b", "c", "d"}

// Question is a multiple-choice quiz question with options pre-shaped as an
// a-d mapping, the form the quiz endpoints exchange.
type Question struct {
	ID            int64             `json:"id"`
	Category      string            `json:"category"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
}

// QuestionInput is the flat create/update payload for a question.
type QuestionInput struct {
	Category      string `json:"category"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
}

// Validate checks that all required fields are present and the correct
// answer names one of the four option slots.
func (in QuestionInput) Validate() error {
	if in.Category == "" || in.Question == "" ||
		in.OptionA == "" || in.OptionB == "" || in.OptionC == "" || in.OptionD == "" ||
		in.CorrectAnswer == "" {
		return fmt.Errorf("missing required fields")
	}
	switch in.CorrectAnswer {
	case "a", "b", "c", "d":
		return nil
	}
	return fmt.Errorf("correct_answer must be one of a, b, c, d")
}

// Shape converts the flat input into the option-mapped question form.
func (in QuestionInput) Shape(id int64) Question {
	return Question{
		ID:       id,
		Category: in.Category,
		Question: in.Question,
		Options: map[string]string{
			"a": in.OptionA,
			"b": in.OptionB,
			"c": in.OptionC,
			"d": in.OptionD,
		},
		CorrectAnswer: in.CorrectAnswer,
	}
}

// Flatten converts a shaped question back into the create/update payload.
func (q Question) Flatten() QuestionInput {
	return QuestionInput{
		Category:      q.Category,
		Question:      q.Question,
		OptionA:       q.Options["a"],
		OptionB:       q.Options["b"],
		OptionC:       q.Options["c"],
		OptionD:       q.Options["d"],
		CorrectAnswer: q.CorrectAnswer,
	}
}

// Result is one stored quiz outcome joined with the user who took it.
type Result struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Category   string    `json:"category"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	TakenAt    time.Time `json:"taken_at"`
}

// SubmitRequest is the quiz submission payload. Answers map question IDs
// (JSON object keys, hence strings) to the chosen option key.
type SubmitRequest struct {
	Category string            `json:"category"`
	Answers  map[string]string `json:"answers"`
}

// SubmitResponse is the server's scoring acknowledgement.
type SubmitResponse struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Category   string `json:"category"`
}

// Percentage returns score/total as a rounded percentage, 0 for an empty set.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(score)/float64(total)*100 + 0.5)
}
