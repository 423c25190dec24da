package settings

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword produces the stored form of an app-lock password: a
// lowercase hex SHA-512 over the raw password bytes.
func HashPassword(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// SetAppPassword stores the password hash and enables the app lock, as
// one atomic batch.
func (r *Repository) SetAppPassword(password string) error {
	return r.store.SetSettings(map[string]string{
		KeyAppPasswordHash: HashPassword(password),
		KeyAppLockEnabled:  "true",
	})
}

// CheckAppPassword reports whether the password matches the stored hash.
// With no password configured every check fails.
func (r *Repository) CheckAppPassword(password string) (bool, error) {
	stored, ok, err := r.store.GetSetting(KeyAppPasswordHash)
	if err != nil {
		return false, err
	}
	if !ok || stored == "" {
		return false, nil
	}
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

// RemoveAppPassword clears the stored hash and disables the app lock.
// An absent hash means "no app lock configured".
func (r *Repository) RemoveAppPassword() error {
	if err := r.store.DeleteSetting(KeyAppPasswordHash); err != nil {
		return err
	}
	return r.store.SetSetting(KeyAppLockEnabled, "false")
}
