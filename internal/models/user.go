package models

// Role is a profile's organisation-wide role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHead    Role = "head"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHead, RoleManager, RoleMember:
		return true
	}
	return false
}

// NormalizeRole maps unknown or empty roles to member.
func NormalizeRole(role string) Role {
	if r := Role(role); r.Valid() {
		return r
	}
	return RoleMember
}

// Profile represents a user in the system
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Department   string `json:"department,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func (p Profile) Actor() Actor {
	return Actor{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       NormalizeRole(string(p.Role)),
		Department: p.Department,
	}
}

// Actor is the authenticated user an operation runs as.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) Authenticated() bool { return a.ID != "" }
