package domain

import (
	"time"
)

// Role is the access level of an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Address is a postal address used for profiles and shipping
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zip_code"`
	Country string `json:"country" bson:"country"`
}

// IsZero reports whether no address field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

// BankDetails holds the payout account submitted with a seller application
type BankDetails struct {
	AccountHolder string `json:"accountHolder" bson:"account_holder"`
	AccountNumber string `json:"accountNumber" bson:"account_number"`
	IFSC          string `json:"ifsc" bson:"ifsc"`
	BankName      string `json:"bankName" bson:"bank_name"`
	Branch        string `json:"branch" bson:"branch"`
}

// User represents a customer or administrator account
type User struct {
	ID           string       `json:"id" bson:"_id" db:"id"`
	Name         string       `json:"name" bson:"name" db:"name"`
	Email        string       `json:"email" bson:"email" db:"email"`
	PasswordHash string       `json:"-" bson:"password_hash" db:"password_hash"`
	Role         Role         `json:"role" bson:"role" db:"role"`
	Address      *Address     `json:"address,omitempty" bson:"address,omitempty"`
	Phone        string       `json:"phone,omitempty" bson:"phone,omitempty" db:"phone"`
	GoogleID     string       `json:"googleId,omitempty" bson:"google_id,omitempty" db:"google_id"`
	GSTNumber    string       `json:"gstNumber,omitempty" bson:"gst_number,omitempty" db:"gst_number"`
	BankDetails  *BankDetails `json:"bankDetails,omitempty" bson:"bank_details,omitempty"`
	PendingAdmin bool         `json:"pendingAdmin" bson:"pending_admin" db:"pending_admin"`
	CreatedAt    time.Time    `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the subset of a user embedded in order views
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the public identity of the user
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// RefreshToken represents a long-lived token used to mint access tokens
type RefreshToken struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	UserID    string    `json:"user_id" bson:"user_id" db:"user_id"`
	Token     string    `json:"token" bson:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" bson:"revoked" db:"revoked"`
}
