package lead

import (
	"strings"
	"time"

	"ibt_connect/internal/session"
)

// Fields is the direct (legacy) lead submission: every field optional.
type Fields struct {
	Name     string
	Phone    string
	Email    string
	Location string
}

// IntakeStatus is the outcome category of a direct submission.
type IntakeStatus string

const (
	StatusIncomplete IntakeStatus = "incomplete"
	StatusSuccess    IntakeStatus = "success"
)

const intakeSuccessMessage = "Lead captured"

// IntakeResult is the evaluation of one direct submission.
type IntakeResult struct {
	Status  IntakeStatus
	Next    string  // prompt for the next missing field when incomplete
	Message string  // confirmation when successful
	Record  *Record // completed record when successful
}

// EvaluateIntake checks a direct submission against the fixed field
// precedence: name, then phone, then a valid email. Location stays
// optional. Email is mandatory to reach success.
func EvaluateIntake(now time.Time, f Fields) IntakeResult {
	name := strings.TrimSpace(f.Name)
	phone := strings.TrimSpace(f.Phone)
	email := strings.TrimSpace(f.Email)
	location := strings.TrimSpace(f.Location)

	switch {
	case name == "":
		return IntakeResult{Status: StatusIncomplete, Next: PromptName}
	case phone == "":
		return IntakeResult{Status: StatusIncomplete, Next: PromptPhone}
	case email == "":
		return IntakeResult{Status: StatusIncomplete, Next: PromptEmail}
	case !ValidEmail(email):
		return IntakeResult{Status: StatusIncomplete, Next: PromptEmailRetry}
	}

	rec := NewRecord(now, session.Draft{
		Name:     name,
		Phone:    phone,
		Email:    email,
		Location: location,
	})
	return IntakeResult{
		Status:  StatusSuccess,
		Message: intakeSuccessMessage,
		Record:  &rec,
	}
}
