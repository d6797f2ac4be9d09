package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/learnova/learnova/core/access"
)

type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	Image        string     `json:"image,omitempty" db:"image"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// AccessRole returns the user's role in the closed role set.
func (u *User) AccessRole() (access.Role, bool) {
	return access.ParseRole(u.Role)
}

func (u *User) IsAdmin() bool {
	r, _ := u.AccessRole()
	return access.GroupAdmin.Accepts(r)
}

func (u *User) IsInstructor() bool {
	r, _ := u.AccessRole()
	return r == access.RoleInstructor
}

func (u *User) IsStudent() bool {
	r, _ := u.AccessRole()
	return r == access.RoleStudent
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Image           string `json:"image" validate:"omitempty,url"`
	Password        string `json:"password" validate:"required,pwdpolicy"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// GetFilter selects a single User. The first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}
