package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/user"
)

const (
	uniqueViolation = pq.ErrorCode("23505")

	// classes reporting a broken database: the process should stop serving
	systemErrorClass   = pq.ErrorClass("58")
	internalErrorClass = pq.ErrorClass("XX")

	userColumns = "id, name, email, role, image, is_active, password_hash, created_at, updated_at, last_login"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :role, :image, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, translateErr(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		usr  user.User
		q    = "SELECT " + userColumns + " FROM users WHERE "
		args []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q += "id = $1"
		args = append(args, filter.ID)
	case filter.Email != "":
		q += "email = $1"
		args = append(args, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	if err := repo.db.GetContext(ctx, &usr, q, args...); err != nil {
		return user.User{}, translateErr(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	q := "SELECT " + userColumns + " FROM users ORDER BY created_at, email"
	if err := repo.db.SelectContext(ctx, &users, q); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET
		name = :name, email = :email, role = :role, image = :image, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		return user.User{}, translateErr(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	switch {
	case n == 0:
		return user.User{}, user.ErrNotFound
	case n > 1:
		return user.User{}, core.NewShutdownError(fmt.Sprintf("integrity issue: %d users updated for id %s", n, usr.ID))
	}
	return usr, nil
}

func translateErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch {
		case pqErr.Code == uniqueViolation:
			return user.ErrEmailExists
		case pqErr.Code.Class() == systemErrorClass, pqErr.Code.Class() == internalErrorClass:
			return errors.Wrap(core.NewShutdownError(pqErr.Error()), msg)
		}
	}
	return errors.Wrap(err, msg)
}
