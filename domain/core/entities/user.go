package entities

// Role names known to the platform.
const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// User is a platform account. Only the minimal projection (id, name, avatar)
// is ever embedded into cached thread representations.
type User struct {
	ID     string
	Name   string
	Email  string
	Phone  string
	Avatar string
	Role   string
}
