package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}
	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

func (u *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return u.repo.IsUsernameAvailable(ctx, username)
}
