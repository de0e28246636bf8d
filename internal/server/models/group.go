package models

// Group is a durable cluster of users sharing at least one attribute.
// Members holds the canonical attribute string of the first qualifying
// user and never changes after creation.
type Group struct {
	ID      int64
	Members string
}

// GroupMember is the projection of a user served by group views.
type GroupMember struct {
	ID         int64    `json:"id"`
	Attributes []string `json:"attributes"`
}

// GroupView is the assembled read model for a group and its members.
type GroupView struct {
	GroupID int64         `json:"group_id"`
	Members []GroupMember `json:"members"`
}
