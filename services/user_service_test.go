package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialsFromEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"FirstDotLast", "jane.doe@example.com", "JD"},
		{"SingleName", "admin@example.com", "AD"},
		{"ShortLocal", "a@example.com", "AX"},
		{"Empty", "", "XX"},
		{"NoDomain", "jane.doe", "JD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InitialsFromEmail(tt.email))
		})
	}
}

func TestStaticUserResolver(t *testing.T) {
	resolver := &StaticUserResolver{Email: "pat.jones@example.com"}

	user := resolver.CurrentUser()
	assert.Equal(t, "pat.jones@example.com", user.Email)
	assert.Equal(t, "PJ", user.Initials)
}
