package models

import "time"

// Grade is a single mark a student received in a subject.
type Grade struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	SubjectID    int64     `db:"subject_id" json:"subject_id"`
	Grade        int       `db:"grade" json:"grade"`
	DateReceived time.Time `db:"date_received" json:"date_received"`
}
