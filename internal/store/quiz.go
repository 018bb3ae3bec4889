package store

import (
	"github.com/skywatch/solarscope/internal/model"
)

// InsertQuestion stores a quiz question.
func (s *Store) InsertQuestion(in model.QuestionInput) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO quiz_questions
		 (category, question, option_a, option_b, option_c, option_d, correct_answer)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Category, in.Question, in.OptionA, in.OptionB, in.OptionC, in.OptionD, in.CorrectAnswer,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuestion returns a question by ID, with options shaped a-d.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	var in model.QuestionInput
	var qid int64
	err := s.db.QueryRow(
		`SELECT id, category, question, option_a, option_b, option_c, option_d, correct_answer
		 FROM quiz_questions WHERE id = ?`, id,
	).Scan(&qid, &in.Category, &in.Question, &in.OptionA, &in.OptionB, &in.OptionC, &in.OptionD, &in.CorrectAnswer)
	if err != nil {
		return model.Question{}, err
	}
	return in.Shape(qid), nil
}

// ListQuestions returns all questions in a category, shaped for the quiz.
func (s *Store) ListQuestions(category string) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, category, question, option_a, option_b, option_c, option_d, correct_answer
		 FROM quiz_questions WHERE category = ? ORDER BY id`, category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var in model.QuestionInput
		var id int64
		if err := rows.Scan(&id, &in.Category, &in.Question, &in.OptionA, &in.OptionB, &in.OptionC, &in.OptionD, &in.CorrectAnswer); err != nil {
			return nil, err
		}
		questions = append(questions, in.Shape(id))
	}
	return questions, rows.Err()
}

// UpdateQuestion replaces every field of the question with the given ID.
func (s *Store) UpdateQuestion(id int64, in model.QuestionInput) error {
	_, err := s.db.Exec(
		`UPDATE quiz_questions SET
		 category = ?, question = ?, option_a = ?, option_b = ?, option_c = ?, option_d = ?, correct_answer = ?
		 WHERE id = ?`,
		in.Category, in.Question, in.OptionA, in.OptionB, in.OptionC, in.OptionD, in.CorrectAnswer, id,
	)
	return err
}

// DeleteQuestion removes a question by ID.
func (s *Store) DeleteQuestion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM quiz_questions WHERE id = ?`, id)
	return err
}

// ListCategories returns the distinct categories that have questions.
func (s *Store) ListCategories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM quiz_questions ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CorrectAnswers maps question ID to correct option key for a category.
func (s *Store) CorrectAnswers(category string) (map[int64]string, error) {
	rows, err := s.db.Query(
		`SELECT id, correct_answer FROM quiz_questions WHERE category = ?`, category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	answers := make(map[int64]string)
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		answers[id] = key
	}
	return answers, rows.Err()
}

// QuestionCount returns the number of stored questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM quiz_questions`).Scan(&count)
	return count, err
}
