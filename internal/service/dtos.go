package service

// FeedbackSubmission is one participant's raw feedback before validation.
type FeedbackSubmission struct {
	TrainingID  string            `validate:"required,max=64"`
	TrainerName string            `validate:"required,max=128"`
	StudentName string            `validate:"omitempty,max=128,student_name"`
	SubjectName string            `validate:"required,max=256"`
	Ratings     map[string]int    `validate:"required,min=1"`
	Answers     map[string]string `validate:"omitempty,dive,max=4000"`
}
