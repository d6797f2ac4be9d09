package access

import "strings"

// LoginPath is where unauthenticated sessions are sent.
const LoginPath = "/login"

// Roles
const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// Route groups
const (
	GroupAdmin      Group = "admin"
	GroupInstructor Group = "instructor"
	GroupStudent    Group = "student"
)

// Reasons for a Decision
const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonUnknownRole
	ReasonWrongRole
)

type (
	// Role is the authorization tag carried by a session.
	Role string

	// Group identifies a role-scoped area of the application.
	Group string

	Reason int

	// User is the part of a session the router reads.
	User struct {
		Role  string `json:"role"`
		Name  string `json:"name,omitempty"`
		Image string `json:"image,omitempty"`
	}

	// Session is a read-only snapshot supplied by the session provider.
	Session struct {
		User *User `json:"user"`
	}

	// Decision is the outcome of Authorize. Redirect is empty when Allow is true.
	Decision struct {
		Allow    bool
		Redirect string
		Reason   Reason
	}

	groupEntry struct {
		path  string
		roles []Role
	}
)

var (
	AllRoles = []Role{RoleAdmin, RoleSuperAdmin, RoleInstructor, RoleStudent}

	groupOrder = []Group{GroupAdmin, GroupInstructor, GroupStudent}

	groupTable = map[Group]groupEntry{
		GroupAdmin:      {path: "/admin", roles: []Role{RoleAdmin, RoleSuperAdmin}},
		GroupInstructor: {path: "/instructor", roles: []Role{RoleInstructor}},
		GroupStudent:    {path: "/student", roles: []Role{RoleStudent}},
	}

	roleHomes = make(map[Role]Group, len(AllRoles))
)

func init() {
	for _, g := range groupOrder {
		for _, r := range groupTable[g].roles {
			roleHomes[r] = g
		}
	}
}

// ParseRole matches s case-insensitively against the closed role set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleHomes[r]; !ok {
		return "", false
	}
	return r, true
}

func (r Role) String() string { return string(r) }

// Home returns the group a role belongs to.
func (r Role) Home() (Group, bool) {
	g, ok := roleHomes[r]
	return g, ok
}

// Groups returns every route group in a stable order.
func Groups() []Group {
	groups := make([]Group, len(groupOrder))
	copy(groups, groupOrder)
	return groups
}

func (g Group) String() string { return string(g) }

// Path returns the URL prefix of the group, or "" if the group is unknown.
func (g Group) Path() string {
	return groupTable[g].path
}

// Accepts reports whether sessions with role r may enter g.
func (g Group) Accepts(r Role) bool {
	for _, accepted := range groupTable[g].roles {
		if accepted == r {
			return true
		}
	}
	return false
}

// HomePath returns where a role lands after sign in.
func HomePath(r Role) string {
	if g, ok := r.Home(); ok {
		return g.Path()
	}
	return LoginPath
}

// Authorize decides whether sess may enter g. It never fails: anything it
// cannot make sense of is sent to the login page.
func Authorize(sess *Session, g Group) Decision {
	if sess == nil || sess.User == nil {
		return redirect(LoginPath, ReasonUnauthenticated)
	}
	role, ok := ParseRole(sess.User.Role)
	if !ok {
		return redirect(LoginPath, ReasonUnknownRole)
	}
	if _, known := groupTable[g]; !known {
		return redirect(LoginPath, ReasonUnauthenticated)
	}
	if g.Accepts(role) {
		return Decision{Allow: true}
	}
	return redirect(HomePath(role), ReasonWrongRole)
}

func redirect(path string, reason Reason) Decision {
	return Decision{Redirect: path, Reason: reason}
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonUnknownRole:
		return "unknown role"
	case ReasonWrongRole:
		return "wrong role"
	default:
		return "invalid"
	}
}
