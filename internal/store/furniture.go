package store

import (
	"database/sql"

	"github.com/seatlog/seatlog/internal/model"
)

const furnitureColumns = `id, name, x, y, rotation, width, height, type, color, is_behind_students`

// InsertFurnitureItem stores a furniture item. An id of 0 auto-assigns; a
// non-zero id replaces any existing row with that id (upsert).
func (s *Store) InsertFurnitureItem(f model.FurnitureItem) (int64, error) {
	r := NewFurnitureRecord(f)
	var (
		res sql.Result
		err error
	)
	if r.ID == 0 {
		res, err = s.db.Exec(
			`INSERT INTO furniture_items (name, x, y, rotation, width, height, type, color, is_behind_students)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.X, r.Y, r.Rotation, r.Width, r.Height, r.Type, r.Color, r.IsBehindStudents,
		)
	} else {
		res, err = s.db.Exec(
			`INSERT INTO furniture_items (id, name, x, y, rotation, width, height, type, color, is_behind_students)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			 name = excluded.name, x = excluded.x, y = excluded.y,
			 rotation = excluded.rotation, width = excluded.width, height = excluded.height,
			 type = excluded.type, color = excluded.color,
			 is_behind_students = excluded.is_behind_students`,
			r.ID, r.Name, r.X, r.Y, r.Rotation, r.Width, r.Height, r.Type, r.Color, r.IsBehindStudents,
		)
	}
	if err != nil {
		return 0, err
	}
	id := r.ID
	if id == 0 {
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	}
	s.notifier.Publish(TableFurniture)
	return id, nil
}

// GetFurnitureItem returns a furniture item by id, or (nil, nil) when
// missing.
func (s *Store) GetFurnitureItem(id int64) (*model.FurnitureItem, error) {
	var r FurnitureRecord
	err := s.db.QueryRow(`SELECT `+furnitureColumns+` FROM furniture_items WHERE id = ?`, id).Scan(
		&r.ID, &r.Name, &r.X, &r.Y, &r.Rotation, &r.Width, &r.Height, &r.Type, &r.Color, &r.IsBehindStudents,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f := r.ToFurnitureItem()
	return &f, nil
}

// ListFurnitureItems returns all furniture items ordered by id.
func (s *Store) ListFurnitureItems() ([]model.FurnitureItem, error) {
	rows, err := s.db.Query(`SELECT ` + furnitureColumns + ` FROM furniture_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.FurnitureItem
	for rows.Next() {
		var r FurnitureRecord
		if err := rows.Scan(
			&r.ID, &r.Name, &r.X, &r.Y, &r.Rotation, &r.Width, &r.Height, &r.Type, &r.Color, &r.IsBehindStudents,
		); err != nil {
			return nil, err
		}
		items = append(items, r.ToFurnitureItem())
	}
	return items, rows.Err()
}

// UpdateFurnitureItem rewrites an existing furniture row.
func (s *Store) UpdateFurnitureItem(f model.FurnitureItem) error {
	r := NewFurnitureRecord(f)
	_, err := s.db.Exec(
		`UPDATE furniture_items SET name = ?, x = ?, y = ?, rotation = ?, width = ?,
		 height = ?, type = ?, color = ?, is_behind_students = ? WHERE id = ?`,
		r.Name, r.X, r.Y, r.Rotation, r.Width, r.Height, r.Type, r.Color, r.IsBehindStudents, r.ID,
	)
	if err != nil {
		return err
	}
	s.notifier.Publish(TableFurniture)
	return nil
}

// DeleteFurnitureItem removes a furniture row.
func (s *Store) DeleteFurnitureItem(id int64) error {
	_, err := s.db.Exec(`DELETE FROM furniture_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	s.notifier.Publish(TableFurniture)
	return nil
}
