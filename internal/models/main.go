// Package models defines the core data structures shared by the rollcall
// client and the recognition service.
package models

import "time"

// Credentials is the username/password pair typed into the login and
// registration forms. It is a value: every With* call returns a new copy.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewCredentials builds a Credentials value.
func NewCredentials(username, password string) Credentials {
	return Credentials{Username: username, Password: password}
}

// WithUsername returns a copy of c with the username replaced.
func (c Credentials) WithUsername(username string) Credentials {
	c.Username = username
	return c
}

// WithPassword returns a copy of c with the password replaced.
func (c Credentials) WithPassword(password string) Credentials {
	c.Password = password
	return c
}

// ReconciliationResult is the recognition service's answer to one group photo.
// Total, Unknown and len(Present) are reported independently: the client never
// assumes Total == Unknown + len(Present).
type ReconciliationResult struct {
	// Total is the number of faces detected in the image.
	Total int `json:"total"`
	// Unknown is the number of detected faces not matched to a known identity.
	Unknown int `json:"unknown"`
	// Present lists the display names of matched identities, in report order.
	Present []string `json:"present"`
}

// User represents a faculty account.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Username is the login name chosen by the user.
	Username string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Session is a server-side login session referenced by the session cookie.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// KnownFace is an enrolled identity together with its face embedding.
type KnownFace struct {
	Name      string
	Embedding []float32
}

// AttendanceRecord is one "present" mark produced by a reconciliation.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// DashboardEntry aggregates attendance marks per student.
type DashboardEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
