package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Dept         string    `json:"dept" db:"dept"`
	RollNo       string    `json:"rollno" db:"rollno"`
	Age          string    `json:"age" db:"age"`
	Phone        string    `json:"phno" db:"phone"`
	Address      string    `json:"address" db:"address"`
	Roles        []string  `json:"roles" db:"roles"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasRole reports whether the user carries the given role
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Profile holds the fields supplied at registration
type Profile struct {
	Name    string
	Email   string
	Dept    string
	RollNo  string
	Age     string
	Phone   string
	Address string
}

// ProfileUpdate is a partial update; nil fields are left untouched
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Dept    *string
	RollNo  *string
	Age     *string
	Phone   *string
	Address *string
}

// IsEmpty reports whether the update carries no field
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Dept == nil && u.RollNo == nil &&
		u.Age == nil && u.Phone == nil && u.Address == nil
}

// Apply copies the non-nil fields onto the user
func (u ProfileUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Dept != nil {
		user.Dept = *u.Dept
	}
	if u.RollNo != nil {
		user.RollNo = *u.RollNo
	}
	if u.Age != nil {
		user.Age = *u.Age
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Address != nil {
		user.Address = *u.Address
	}
}
