package store

import (
	"fmt"
	"strings"

	"github.com/skywatch/solarscope/internal/model"
)

// Table and column names below are interpolated into SQL directly. They come
// from the compiled-in domain configs, never from request input.

// ListBodies returns every record of a content collection in insertion order.
func (s *Store) ListBodies(d model.Domain) ([]model.Body, error) {
	cols := d.FieldKeys()
	query := fmt.Sprintf(`SELECT id, %s FROM %s ORDER BY id`, strings.Join(cols, ", "), d.Name)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bodies []model.Body
	for rows.Next() {
		b := model.Body{Attrs: make(map[string]string, len(cols))}
		vals := make([]string, len(cols))
		dest := make([]any, 0, len(cols)+1)
		dest = append(dest, &b.ID)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, c := range cols {
			b.Attrs[c] = vals[i]
		}
		bodies = append(bodies, b)
	}
	return bodies, rows.Err()
}

// GetBody returns a single record by ID.
func (s *Store) GetBody(d model.Domain, id int64) (model.Body, error) {
	cols := d.FieldKeys()
	query := fmt.Sprintf(`SELECT id, %s FROM %s WHERE id = ?`, strings.Join(cols, ", "), d.Name)
	b := model.Body{Attrs: make(map[string]string, len(cols))}
	vals := make([]string, len(cols))
	dest := make([]any, 0, len(cols)+1)
	dest = append(dest, &b.ID)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if err := s.db.QueryRow(query, id).Scan(dest...); err != nil {
		return model.Body{}, err
	}
	for i, c := range cols {
		b.Attrs[c] = vals[i]
	}
	return b, nil
}

// InsertBody stores a new record and returns its assigned ID. Attributes
// missing from the input are stored as empty strings.
func (s *Store) InsertBody(d model.Domain, b model.Body) (int64, error) {
	cols := d.FieldKeys()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		d.Name, strings.Join(cols, ", "), placeholders)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = b.Attr(c)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateBody replaces every attribute of the record with the given ID.
func (s *Store) UpdateBody(d model.Domain, id int64, b model.Body) error {
	cols := d.FieldKeys()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = c + " = ?"
		args = append(args, b.Attr(c))
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, d.Name, strings.Join(sets, ", "))
	_, err := s.db.Exec(query, args...)
	return err
}

// DeleteBody removes the record with the given ID.
func (s *Store) DeleteBody(d model.Domain, id int64) error {
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, d.Name), id)
	return err
}
