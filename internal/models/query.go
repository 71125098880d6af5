package models

import "time"

// StudentAverage pairs a student with their mean grade.
type StudentAverage struct {
	Name         string  `db:"name" json:"name"`
	AverageGrade float64 `db:"average_grade" json:"average_grade"`
}

// GroupAverage pairs a group with the mean grade of its students.
type GroupAverage struct {
	Name         string  `db:"name" json:"name"`
	AverageGrade float64 `db:"average_grade" json:"average_grade"`
}

// StudentGrade is a single grade value labelled with the student's name.
type StudentGrade struct {
	StudentName string `db:"student_name" json:"student_name"`
	Grade       int    `db:"grade" json:"grade"`
}

// LessonGrade is a grade recorded on the most recent lesson of a group/subject pair.
type LessonGrade struct {
	GradeID      int64     `db:"grade_id" json:"grade_id"`
	StudentName  string    `db:"student_name" json:"student_name"`
	SubjectName  string    `db:"subject_name" json:"subject_name"`
	GradeValue   int       `db:"grade_value" json:"grade_value"`
	DateReceived time.Time `db:"date_received" json:"date_received"`
}

// NameSamples lists the names that have data behind them, used to drive demo reports.
type NameSamples struct {
	Subjects []string `json:"subjects"`
	Teachers []string `json:"teachers"`
	Groups   []string `json:"groups"`
	Students []string `json:"students"`
}
