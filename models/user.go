package models

type Role string

const (
	RoleEmployee   Role = "Employee"
	RoleManager    Role = "Manager"
	RoleDirector   Role = "Director"
	RoleSuperAdmin Role = "SuperAdmin"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleDirector, RoleSuperAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// CanManage reports whether r may administer other users, teams and contracts.
func (r Role) CanManage() bool {
	return r == RoleDirector || r == RoleSuperAdmin
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type User struct {
	BaseEntity `bson:",inline"`

	EmployeeID    int64   `bson:"employeeId" json:"employeeId"`
	UserName      string  `bson:"userName" json:"userName"`
	PasswordHash  string  `bson:"passwordHash" json:"-"` // never expose
	FullName      string  `bson:"fullName" json:"fullName"`
	FullNameCI    string  `bson:"fullNameCi" json:"-"`
	Email         string  `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber   string  `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address       Address `bson:"address" json:"address"`
	Role          Role    `bson:"role" json:"role"`
	AvatarImageID string  `bson:"avatarImageId,omitempty" json:"avatarImageId,omitempty"`
	AvatarURL     string  `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	IsActive      bool    `bson:"isActive" json:"isActive"`
}
