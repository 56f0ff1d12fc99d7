package user

import "time"

// DefaultBio is shown for users who never set a bio.
const DefaultBio = "No bio available."

// User is the credential-store record. Its book collection lives on the same
// document but is only read and written through the collection package.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayBio returns the bio or the placeholder when unset.
func (u User) DisplayBio() string {
	if u.Bio == "" {
		return DefaultBio
	}
	return u.Bio
}
