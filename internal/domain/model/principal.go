package model

// Role is the single role a principal holds for the whole session.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleFieldOfficer   Role = "field-officer"
	RoleFinanceOfficer Role = "finance-officer"
	RoleTrainee        Role = "trainee"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleFieldOfficer, RoleFinanceOfficer, RoleTrainee}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFieldOfficer, RoleFinanceOfficer, RoleTrainee:
		return true
	}
	return false
}

// Principal is the authenticated actor of the session.
type Principal struct {
	ID       int64
	Username string
	Role     Role
}
