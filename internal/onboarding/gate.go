// Package onboarding decides which form a signed-in viewer must complete
// before reaching the main feed.
package onboarding

import (
	"errors"
	"strings"
	"time"

	"golivehub/internal/models"
)

// Step is what the viewer has to do next
type Step int

const (
	// StepRegistration means no profile exists yet
	StepRegistration Step = iota
	// StepInterestSelection means the profile has no interests
	StepInterestSelection
	// StepPassThrough means the viewer may enter the feed
	StepPassThrough
)

func (s Step) String() string {
	switch s {
	case StepRegistration:
		return "registration"
	case StepInterestSelection:
		return "interest_selection"
	case StepPassThrough:
		return "pass_through"
	default:
		return "unknown"
	}
}

// Decide maps the fetched profile to the next step. A nil profile means
// the viewer has never registered.
func Decide(profile *models.User) Step {
	if profile == nil {
		return StepRegistration
	}
	if !profile.HasInterests() {
		return StepInterestSelection
	}
	return StepPassThrough
}

var (
	// ErrMissingIdentity is returned when the form has no identity provider id
	ErrMissingIdentity = errors.New("user id is missing from the identity session")
	// ErrUserNameRequired is returned when the display name is empty
	ErrUserNameRequired = errors.New("user name is required")
	// ErrDateOfBirthRequired is returned when no date of birth was entered
	ErrDateOfBirthRequired = errors.New("date of birth is required")
	// ErrInvalidDateOfBirth is returned when the date is not YYYY-MM-DD or in the future
	ErrInvalidDateOfBirth = errors.New("date of birth must be a past date in YYYY-MM-DD form")
	// ErrNoInterests is returned when no interest was selected
	ErrNoInterests = errors.New("select at least one interest")
)

// RegistrationForm is the registration form. Mail and ImageURL come from the
// identity provider and are not editable.
type RegistrationForm struct {
	UserID      string
	UserName    string
	DateOfBirth string
	Mail        string
	ImageURL    string
}

// Prefill copies the identity provider fields into the form
func Prefill(userID, mail, imageURL string) RegistrationForm {
	return RegistrationForm{UserID: userID, Mail: mail, ImageURL: imageURL}
}

// Validate checks the fields the viewer types in
func (f RegistrationForm) Validate() error {
	if strings.TrimSpace(f.UserID) == "" {
		return ErrMissingIdentity
	}
	if strings.TrimSpace(f.UserName) == "" {
		return ErrUserNameRequired
	}
	dob := strings.TrimSpace(f.DateOfBirth)
	if dob == "" {
		return ErrDateOfBirthRequired
	}
	parsed, err := time.Parse("2006-01-02", dob)
	if err != nil || parsed.After(time.Now()) {
		return ErrInvalidDateOfBirth
	}
	return nil
}

// ValidateInterests requires at least one non-blank interest. There is no maximum.
func ValidateInterests(interests []string) error {
	for _, interest := range interests {
		if strings.TrimSpace(interest) != "" {
			return nil
		}
	}
	return ErrNoInterests
}

// InterestOptions lists the selectable interests, one per category
func InterestOptions() []string {
	options := make([]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		options = append(options, category.Name)
	}
	return options
}
