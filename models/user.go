// models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles known to the dashboard. A role is fixed at creation and only an admin may change it.
const (
	RoleAdmin             = "admin"
	RoleManager           = "manager"
	RoleMarkenbotschafter = "markenbotschafter"
	RoleKunde             = "kunde"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleMarkenbotschafter, RoleKunde:
		return true
	}
	return false
}

// User model
type User struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email     string              `json:"email" bson:"email"`
	Password  string              `json:"-" bson:"password"`
	Name      string              `json:"name" bson:"name"`
	Surname   string              `json:"surname" bson:"surname"`
	Role      string              `json:"role" bson:"role"`
	ManagerID *primitive.ObjectID `json:"managerId,omitempty" bson:"managerId,omitempty"` // only for markenbotschafter

	// Team fee paid flag, toggled by admins only.
	StatusProvisionenMarkenbotschafter bool `json:"statusProvisionenMarkenbotschafter" bson:"statusProvisionenMarkenbotschafter"`

	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	Zip     string `json:"zip,omitempty" bson:"zip,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`

	ReferralCode string    `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	FCMToken     string    `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	IsActive     bool      `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins name and surname.
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

// Snapshot captures the fields of u that tasks keep for historical display.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{ID: u.ID, Name: u.FullName(), Role: u.Role}
}

// Viewer is the resolved identity of the caller of a request.
type Viewer struct {
	ID    primitive.ObjectID `json:"id"`
	Email string             `json:"email"`
	Role  string             `json:"role"`
}

func (v Viewer) IsAdmin() bool { return v.Role == RoleAdmin }

// SignupRequest is the public self-registration payload. Self-registered users are Kunden.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Phone    string `json:"phone,omitempty" validate:"max=40"`
}

// LoginRequest models
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// CreateUserRequest is used by admins to create team members of any role.
type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Name      string  `json:"name" validate:"required,max=100"`
	Surname   string  `json:"surname" validate:"required,max=100"`
	Role      string  `json:"role" validate:"required,role"`
	ManagerID *string `json:"managerId,omitempty" validate:"omitempty,objectid"`
	Phone     string  `json:"phone,omitempty" validate:"max=40"`
	Street    string  `json:"street,omitempty" validate:"max=200"`
	Zip       string  `json:"zip,omitempty" validate:"max=20"`
	City      string  `json:"city,omitempty" validate:"max=100"`
	Country   string  `json:"country,omitempty" validate:"max=100"`
}

// UserPatch is a partial update of a user. Only non-nil fields are applied.
// ManagerID set to "" detaches an ambassador from their manager.
type UserPatch struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Surname   *string `json:"surname,omitempty" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Street    *string `json:"street,omitempty" validate:"omitempty,max=200"`
	Zip       *string `json:"zip,omitempty" validate:"omitempty,max=20"`
	City      *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country   *string `json:"country,omitempty" validate:"omitempty,max=100"`
	FCMToken  *string `json:"fcmToken,omitempty" validate:"omitempty,max=4096"`
	Role      *string `json:"role,omitempty" validate:"omitempty,role"`
	ManagerID *string `json:"managerId,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// UserSelfFields lists the fields a non-admin may change on their own record.
var UserSelfFields = map[string]bool{
	"name": true, "surname": true, "email": true, "password": true, "phone": true,
	"street": true, "zip": true, "city": true, "country": true, "fcmToken": true,
}

// Fields returns the JSON names of the fields present in the patch.
func (p UserPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Surname != nil, "surname")
	add(p.Email != nil, "email")
	add(p.Password != nil, "password")
	add(p.Phone != nil, "phone")
	add(p.Street != nil, "street")
	add(p.Zip != nil, "zip")
	add(p.City != nil, "city")
	add(p.Country != nil, "country")
	add(p.FCMToken != nil, "fcmToken")
	add(p.Role != nil, "role")
	add(p.ManagerID != nil, "managerId")
	add(p.IsActive != nil, "isActive")
	return out
}

// SetDocument converts the plain fields of the patch into a $set document.
// Password, role and manager changes need checks and are handled by the caller.
func (p UserPatch) SetDocument() bson.M {
	set := bson.M{}
	str := func(v *string, key string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	str(p.Name, "name")
	str(p.Surname, "surname")
	if p.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	str(p.Phone, "phone")
	str(p.Street, "street")
	str(p.Zip, "zip")
	str(p.City, "city")
	str(p.Country, "country")
	str(p.FCMToken, "fcmToken")
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}

// CommissionStatusRequest toggles a paid flag.
type CommissionStatusRequest struct {
	Paid *bool `json:"paid" validate:"required"`
}

// DeleteUserResult reports what a user deletion changed in referencing documents.
type DeleteUserResult struct {
	CompaniesReassigned int64 `json:"companiesReassigned"`
	AmbassadorsDetached int64 `json:"ambassadorsDetached"`
}
