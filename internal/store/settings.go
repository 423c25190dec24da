package store

import "database/sql"

// The settings table is a flat key-value map. Values are stored as text;
// typed interpretation and JSON encoding of structured values belong to
// the settings package.

// SetSetting upserts one key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	if err != nil {
		return err
	}
	s.notifier.Publish(TableSettings)
	return nil
}

// GetSetting returns the value for a key and whether the key exists.
// A missing key is not an error; the caller substitutes its default.
func (s *Store) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// DeleteSetting removes a key. Reads of a removed key fall back to the
// documented default.
func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	s.notifier.Publish(TableSettings)
	return nil
}

// SetSettings upserts a batch of keys atomically: either every entry
// applies or none do.
func (s *Store) SetSettings(entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range entries {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = ?`,
			key, value, value,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifier.Publish(TableSettings)
	return nil
}

// GetAllSettings returns a snapshot of every stored key.
func (s *Store) GetAllSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
