package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidUser is returned when a user record is missing a required field
var ErrInvalidUser = errors.New("invalid user")

// adminRole is served by the insurer dashboard
const adminRole = "admin"

// Role is the named principal category of a user (Driver, Garage, Assessor, Insurer, Admin)
type Role struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// DashboardSegment returns the dashboard URL segment for the role.
// Admins share the insurer dashboard; every other role maps to its lowercased name.
func (r Role) DashboardSegment() string {
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if name == adminRole {
		return "insurer"
	}
	return name
}

// Tenant is the insurer organisation a user belongs to
type Tenant struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// Department represents an insurer department
type Department struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// Garage represents a repair garage
type Garage struct {
	ID      ID     `json:"id"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Vehicle represents a vehicle registered to a driver
type Vehicle struct {
	ID          ID     `json:"id"`
	PlateNumber string `json:"plate_number,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// User is the typed view of the principal returned by the API at login.
// The session persists the API's JSON as sent; see MergeJSON.
type User struct {
	ID           ID          `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Role         Role        `json:"role"`
	RoleID       ID          `json:"role_id,omitempty"`
	TenantID     ID          `json:"tenant_id,omitempty"`
	Tenant       *Tenant     `json:"tenant,omitempty"`
	DepartmentID ID          `json:"department_id,omitempty"`
	Department   *Department `json:"department,omitempty"`
	GarageID     ID          `json:"garage_id,omitempty"`
	Garage       *Garage     `json:"garage,omitempty"`
	Vehicles     []Vehicle   `json:"vehicles,omitempty"`
	Status       string      `json:"status,omitempty"`
	LastLogin    string      `json:"last_login,omitempty"`
}

// Validate checks the fields a session cannot work without
func (u *User) Validate() error {
	switch {
	case u == nil:
		return fmt.Errorf("%w: missing user", ErrInvalidUser)
	case strings.TrimSpace(string(u.ID)) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	case strings.TrimSpace(u.Email) == "":
		return fmt.Errorf("%w: missing email", ErrInvalidUser)
	case strings.TrimSpace(u.FirstName) == "":
		return fmt.Errorf("%w: missing first_name", ErrInvalidUser)
	case strings.TrimSpace(u.Role.Name) == "":
		return fmt.Errorf("%w: missing role name", ErrInvalidUser)
	}
	return nil
}

// FullName joins the first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DashboardPath returns the dashboard route the user lands on after login
func (u *User) DashboardPath() string {
	return "/dashboard/" + u.Role.DashboardSegment()
}

// Clone returns a deep copy so callers cannot mutate session state in place
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Tenant != nil {
		t := *u.Tenant
		c.Tenant = &t
	}
	if u.Department != nil {
		d := *u.Department
		c.Department = &d
	}
	if u.Garage != nil {
		g := *u.Garage
		c.Garage = &g
	}
	if u.Vehicles != nil {
		c.Vehicles = append([]Vehicle(nil), u.Vehicles...)
	}
	return &c
}
