package profile

import "bookshelf/internal/user"

// Profile is the public view of a user. It never carries the password hash.
type Profile struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

func fromUser(u user.User) Profile {
	return Profile{
		FullName: u.FullName,
		Email:    u.Email,
		Bio:      u.DisplayBio(),
	}
}
