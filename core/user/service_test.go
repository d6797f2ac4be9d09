package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/user"
	"github.com/learnova/learnova/tests"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	validate := testutil.NewValidator()
	repo := testutil.NewUserRepository(t)
	svc := user.NewService(repo)
	testutil.CreateUser(t, repo, "Taken", "taken@learnova.test", "", "STUDENT", true)

	valid := func() user.NewUser {
		return user.NewUser{
			Name:            " Ada Lovelace ",
			Email:           " Ada@Learnova.TEST ",
			Role:            "instructor",
			Password:        "Engines1843",
			PasswordConfirm: "Engines1843",
		}
	}

	tests := []struct {
		name      string
		modify    func(nu *user.NewUser)
		wantField string // "" for success
		wantTag   string
	}{
		{name: "valid"},
		{name: "blank name", modify: func(nu *user.NewUser) { nu.Name = "   " }, wantField: "name", wantTag: "notblank"},
		{name: "bad email", modify: func(nu *user.NewUser) { nu.Email = "ada" }, wantField: "email", wantTag: "email"},
		{name: "unknown role", modify: func(nu *user.NewUser) { nu.Role = "teacher" }, wantField: "role", wantTag: "role"},
		{name: "bad image", modify: func(nu *user.NewUser) { nu.Image = "not a url" }, wantField: "image", wantTag: "url"},
		{name: "short password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Ab1", "Ab1" }, wantField: "password", wantTag: "pwdpolicy"},
		{name: "password with space", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Engines 1843", "Engines 1843" }, wantField: "password", wantTag: "pwdpolicy"},
		{name: "simple password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "engines1843", "engines1843" }, wantField: "password", wantTag: "pwdcplx"},
		{name: "password like name", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "AdaLovelace1", "AdaLovelace1" }, wantField: "password", wantTag: "pwdtoosim"},
		{name: "common password", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Password123", "Password123" }, wantField: "password", wantTag: "pwdnocommon"},
		{name: "confirm mismatch", modify: func(nu *user.NewUser) { nu.PasswordConfirm = "Engines1844" }, wantField: "password_confirm", wantTag: "eqfield"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			nu.Email = string(rune('a'+i)) + nu.Email[1:] // keep emails unique across cases
			if tt.modify != nil {
				tt.modify(&nu)
			}

			usr, err := svc.Create(ctx, nu, validate)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.NotEmpty(t, usr.ID)
				assert.Equal(t, "Ada Lovelace", usr.Name)
				assert.Equal(t, "INSTRUCTOR", usr.Role)
				assert.True(t, usr.IsActive)
				assert.NoError(t, usr.CheckPassword("Engines1843"))
				return
			}

			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			var found bool
			for _, fe := range vErrs {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			assert.True(t, found, "want %s/%s in %v", tt.wantField, tt.wantTag, vErrs)
		})
	}

	t.Run("email exists", func(t *testing.T) {
		nu := valid()
		nu.Email = "TAKEN@learnova.test"
		_, err := svc.Create(ctx, nu, validate)

		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})
}

func TestService_SetLastLogin(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewUserRepository(t)
	svc := user.NewService(repo)
	usr := testutil.CreateUser(t, repo, "Grace", "grace@learnova.test", "", "ADMIN", true)

	now := time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)
	user.NowFunc = func() time.Time { return now }
	defer func() { user.NowFunc = time.Now }()

	usr, err := svc.SetLastLogin(ctx, usr)
	require.NoError(t, err)
	require.NotNil(t, usr.LastLogin)
	assert.Equal(t, now, *usr.LastLogin)

	stored, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, now, *stored.LastLogin)
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	validate := testutil.NewValidator()
	repo := testutil.NewUserRepository(t)
	svc := user.NewService(repo)
	usr := testutil.CreateUser(t, repo, "Alan", "alan@learnova.test", "Enigma1912", "STUDENT", true)

	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "nobody@learnova.test", "Bombe19400", validate))
	assert.Error(t, svc.ResetPassword(ctx, usr.Email, "short", validate))

	require.NoError(t, svc.ResetPassword(ctx, " ALAN@learnova.test ", "Bombe19400", validate))
	stored, err := svc.GetByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword("Bombe19400"))
	assert.Error(t, stored.CheckPassword("Enigma1912"))
}

func TestUser_Roles(t *testing.T) {
	tests := []struct {
		role                       string
		admin, instructor, student bool
	}{
		{role: "ADMIN", admin: true},
		{role: "super_admin", admin: true},
		{role: "Instructor", instructor: true},
		{role: "STUDENT", student: true},
		{role: "guest"},
	}
	for _, tt := range tests {
		usr := user.User{Role: tt.role}
		assert.Equal(t, tt.admin, usr.IsAdmin(), "%s IsAdmin", tt.role)
		assert.Equal(t, tt.instructor, usr.IsInstructor(), "%s IsInstructor", tt.role)
		assert.Equal(t, tt.student, usr.IsStudent(), "%s IsStudent", tt.role)
	}
}
