package users

import "time"

type Role string

const (
	RolePassenger Role = "passenger"
	RoleBusOwner  Role = "bus_owner"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity is the authenticated actor attached to a request. The core
// trusts it; credential checking happens in the auth layer.
type Identity struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (i Identity) IsAdmin() bool    { return i.Role == RoleAdmin }
func (i Identity) IsBusOwner() bool { return i.Role == RoleBusOwner }
