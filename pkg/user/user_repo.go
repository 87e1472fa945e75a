package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO app_user (uid, username, display_name) VALUES (?, ?, ?)`
	result, err := u.db.ExecContext(ctx, query, user.Uid, user.Username, user.DisplayName)
	if err != nil {
		err := fmt.Errorf("could not create user: %w", err)
		log.Error(err)
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		err := fmt.Errorf("could not retrieve last insert id: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(id), nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT id, uid, username, display_name FROM app_user WHERE id = ?`
	var user User
	err := u.db.QueryRowContext(ctx, query, id).
		Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get user: %w", err)
		log.Error(err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, username, display_name FROM app_user WHERE uid = ?`
	var user User
	err := u.db.QueryRowContext(ctx, query, uid).
		Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get user by uid: %w", err)
		log.Error(err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	query := `SELECT id, uid, username, display_name FROM app_user ORDER BY username`
	rows, err := u.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query users: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName); err != nil {
			err := fmt.Errorf("could not scan user: %w", err)
			log.Error(err)
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return users, nil
}

func (u *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	query := `SELECT COUNT(1) FROM app_user WHERE username = ?`
	var count int
	if err := u.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		err := fmt.Errorf("could not check username availability: %w", err)
		log.Error(err)
		return false, err
	}
	return count == 0, nil
}
