package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAndValidate(t *testing.T) {
	u := User{FullName: "  Juan Perez ", Email: " Juan@Mail.COM "}
	u.Normalize()

	assert.Equal(t, "Juan Perez", u.FullName)
	assert.Equal(t, "juan@mail.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, StatusActive, u.Status)
	assert.NoError(t, u.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   User
		want error
	}{
		{"no name", User{Email: "a@b.co", Role: RoleUser}, ErrFullNameRequired},
		{"at sign in name", User{FullName: "juan@casa", Email: "a@b.co", Role: RoleUser}, ErrFullNameHasAt},
		{"bad email", User{FullName: "x", Email: "not-an-email", Role: RoleUser}, ErrInvalidEmail},
		{"display name email", User{FullName: "x", Email: "Juan <a@b.co>", Role: RoleUser}, ErrInvalidEmail},
		{"bad role", User{FullName: "x", Email: "a@b.co", Role: "ROOT"}, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.in
			assert.ErrorIs(t, u.Validate(), tc.want)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("12345"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("123456"))
}
