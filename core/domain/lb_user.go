package domain

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned by the stats provider when a username does not
// exist on the upstream source. Terminal: callers must not retry it.
var ErrUserNotFound = errors.New("user does not exist on stats source")

// User is a tracked roster member. Username is the external identity and is
// immutable; JobsApplied is a denormalized counter maintained by the job log.
type User struct {
	Username    string    `json:"username"`
	Name        string    `json:"name,omitempty"`
	JobsApplied int       `json:"jobs_applied"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName returns the preferred display name for the user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
