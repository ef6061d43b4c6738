package domain

import "time"

// User is a record in the user directory. Its Role may change over time.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Caller returns the request identity for this user.
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
