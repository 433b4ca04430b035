package domain

import "time"

// Session is the explicit context a studio request runs in. KeySelected is the
// host capability flag: whether a usable provider key has been chosen.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	KeySelected bool      `json:"key_selected"`
	APIKey      string    `json:"api_key,omitempty"`
	Workspace   Workspace `json:"workspace"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RevokeKey clears the selected key after the provider rejected it.
func (s *Session) RevokeKey() {
	s.KeySelected = false
	s.APIKey = ""
}
