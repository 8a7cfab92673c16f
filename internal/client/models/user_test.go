package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser_DefaultsRole(t *testing.T) {
	u := NewUser("u1", "a@b.c", "", true)
	assert.Equal(t, "user", u.Role)

	admin := NewUser("u2", "x@y.z", "admin", false)
	assert.Equal(t, "admin", admin.Role)
	assert.False(t, admin.EmailVerified)
}

func TestUser_Clone(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Clone())

	u := NewUser("u1", "a@b.c", "", true)
	c := u.Clone()
	c.Email = "changed@b.c"
	assert.Equal(t, "a@b.c", u.Email)
}
