package models

// Student belongs to exactly one group.
type Student struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	GroupID int64  `db:"group_id" json:"group_id"`
}
