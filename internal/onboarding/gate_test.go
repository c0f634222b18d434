package onboarding

import (
	"testing"

	"golivehub/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	t.Run("absent profile requires registration", func(t *testing.T) {
		assert.Equal(t, StepRegistration, Decide(nil))
	})

	t.Run("empty interests require selection", func(t *testing.T) {
		assert.Equal(t, StepInterestSelection, Decide(&models.User{UserID: "u1", Interests: pq.StringArray{}}))
		assert.Equal(t, StepInterestSelection, Decide(&models.User{UserID: "u1"}))
	})

	t.Run("interests pass through", func(t *testing.T) {
		assert.Equal(t, StepPassThrough, Decide(&models.User{UserID: "u1", Interests: pq.StringArray{"gaming"}}))
	})
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "registration", StepRegistration.String())
	assert.Equal(t, "interest_selection", StepInterestSelection.String())
	assert.Equal(t, "pass_through", StepPassThrough.String())
	assert.Equal(t, "unknown", Step(42).String())
}

func TestRegistrationForm_Validate(t *testing.T) {
	valid := Prefill("user_1", "a@x.com", "img.png")
	valid.UserName = "alice"
	valid.DateOfBirth = "2000-01-01"
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(f *RegistrationForm)
		want   error
	}{
		{"missing identity", func(f *RegistrationForm) { f.UserID = "" }, ErrMissingIdentity},
		{"missing name", func(f *RegistrationForm) { f.UserName = " " }, ErrUserNameRequired},
		{"missing dob", func(f *RegistrationForm) { f.DateOfBirth = "" }, ErrDateOfBirthRequired},
		{"bad dob", func(f *RegistrationForm) { f.DateOfBirth = "Jan 1 2000" }, ErrInvalidDateOfBirth},
		{"future dob", func(f *RegistrationForm) { f.DateOfBirth = "2999-12-31" }, ErrInvalidDateOfBirth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			assert.ErrorIs(t, form.Validate(), tt.want)
		})
	}
}

func TestValidateInterests(t *testing.T) {
	assert.ErrorIs(t, ValidateInterests(nil), ErrNoInterests)
	assert.ErrorIs(t, ValidateInterests([]string{" ", ""}), ErrNoInterests)
	assert.NoError(t, ValidateInterests([]string{"Gaming"}))
	assert.NoError(t, ValidateInterests([]string{"Gaming", "Music", "Art", "Sports", "Education", "Technology"}))
}

func TestInterestOptions(t *testing.T) {
	options := InterestOptions()
	assert.Len(t, options, len(models.Categories))
	assert.Contains(t, options, "Gaming")
}
