// Package models holds the persisted entities of the matching service and
// the canonical attribute-string encoding shared by every write path.
package models

// User is a registered identity. Attributes holds the canonical
// comma-joined attribute string. Token is empty until first signin and
// immutable afterwards. GroupID references the group the user was matched
// into at signup.
type User struct {
	ID         int64
	Attributes string
	GroupID    int64
	Token      string
}
