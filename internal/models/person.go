package models

import "time"

// Role identifies which kind of person a record describes.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
)

// Person is implemented by every individual tracked by the registry.
type Person interface {
	PersonID() string
	DisplayName() string
	Role() Role
	IsActive() bool
}

// Profile carries the attributes shared by students and instructors.
type Profile struct {
	ID        string    `json:"id" validate:"required"`
	FullName  string    `json:"full_name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func newProfile(id, fullName, email string) Profile {
	return Profile{ID: id, FullName: fullName, Email: email, Active: true, CreatedAt: time.Now()}
}

func (p Profile) PersonID() string    { return p.ID }
func (p Profile) DisplayName() string { return p.FullName }
func (p Profile) IsActive() bool      { return p.Active }
