package services

import "strings"

// User is the resolved operator recorded on history entries. Identity
// resolution itself happens outside this system; only the initials matter here.
type User struct {
	Email    string `json:"email"`
	Initials string `json:"initials"`
}

// UserResolver supplies the current operator.
type UserResolver interface {
	CurrentUser() User
}

// StaticUserResolver resolves a fixed operator from configuration.
type StaticUserResolver struct {
	Email string
}

func (r *StaticUserResolver) CurrentUser() User {
	return User{Email: r.Email, Initials: InitialsFromEmail(r.Email)}
}

// InitialsFromEmail derives operator initials from a first.last@domain email.
// Falls back to the first two characters, or "XX" for unusable input.
func InitialsFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "XX"
	}
	parts := strings.Split(local, ".")
	if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
		return strings.ToUpper(parts[0][:1] + parts[1][:1])
	}
	if len(local) >= 2 {
		return strings.ToUpper(local[:2])
	}
	return strings.ToUpper(local + "X")
}
