package domain

import "time"

// UserType represents the roles a user may act in.
type UserType string

const (
	UserTypeDriver UserType = "driver"
	UserTypeRider  UserType = "rider"
	UserTypeBoth   UserType = "both"
)

// User represents a registered user. Users are shared entities referenced
// by id from trips and memberships; nothing here owns them.
type User struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	PasswordHash    string
	Phone           string
	UserType        UserType
	CurrentLocation Coordinate
	Rating          float64
	TotalReviews    int
	PhoneVerified   bool
	IDVerified      bool
	Vehicle         string
	VehicleNumber   string
	VehicleColor    string
	CreatedAt       time.Time
}

// Profile is the minimal projection of a user exposed to other participants.
type Profile struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	UserType      string  `json:"user_type"`
	Rating        float64 `json:"rating"`
	TotalReviews  int     `json:"total_reviews"`
	Vehicle       string  `json:"vehicle,omitempty"`
	VehicleNumber string  `json:"vehicle_number,omitempty"`
	VehicleColor  string  `json:"vehicle_color,omitempty"`
}

// PublicProfile returns the projection of u safe to share with other users.
func (u *User) PublicProfile() Profile {
	return Profile{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		UserType:      string(u.UserType),
		Rating:        u.Rating,
		TotalReviews:  u.TotalReviews,
		Vehicle:       u.Vehicle,
		VehicleNumber: u.VehicleNumber,
		VehicleColor:  u.VehicleColor,
	}
}

// AddRating folds a new 1-5 review into the running average.
func (u *User) AddRating(rating int) {
	total := u.Rating*float64(u.TotalReviews) + float64(rating)
	u.TotalReviews++
	u.Rating = total / float64(u.TotalReviews)
}
