package domain

// Caller is the authenticated identity making the current request.
// It is built per request from the current user record and never persisted.
type Caller struct {
	ID   string
	Role Role
}

// Owns reports whether the caller is the owner of the task.
func (c Caller) Owns(task *Task) bool {
	return task != nil && task.OwnerID == c.ID
}
