package models

// Teacher is linked to subjects through the teacher_m2m_subject association.
type Teacher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// TeacherSubject is one row of the teacher/subject association.
type TeacherSubject struct {
	TeacherID int64 `db:"teacher_id" json:"teacher_id"`
	SubjectID int64 `db:"subject_id" json:"subject_id"`
}
