package models

// Group is a named cohort of students. Names are unique.
type Group struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
