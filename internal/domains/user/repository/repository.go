package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"reservo/infras/otel"
	"reservo/infras/postgres"
	"reservo/internal/domains/user/model"
	"reservo/shared"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	gRepo "reservo/shared/repository"
	"time"

	"github.com/lib/pq"
)

// User stores staff accounts. Lookups return a zero User when nothing matches.
type User interface {
	Insert(ctx context.Context, user model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type repositoryImpl struct {
	users gRepo.Repository[model.User]
	otel  otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		users: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:  otel,
	}
}

func byID(id string) gDto.FilterGroup {
	return shared.FilterByID(id, model.FieldID, model.TableName)
}

// Insert relies on the unique index on email, so two concurrent sign ups
// cannot both succeed.
func (r *repositoryImpl) Insert(ctx context.Context, user model.User) error {
	err := r.users.Insert(ctx, user)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == constant.PqErrorCodeUniqueViolation {
		return model.ErrEmailTaken
	}

	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *repositoryImpl) GetByEmail(ctx context.Context, email string) (model.User, error) {
	user, err := r.users.Get(ctx, gDto.And(gDto.Eq(model.TableName, model.FieldEmail, email)))
	if err != nil {
		return user, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *repositoryImpl) GetByID(ctx context.Context, id string) (model.User, error) {
	user, err := r.users.Get(ctx, byID(id))
	if err != nil {
		return user, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	return user, nil
}

type lastLogin struct {
	LastLogin time.Time `db:"last_login"`
}

func (r *repositoryImpl) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := r.users.Update(ctx, shared.TransformFields(lastLogin{LastLogin: at}, id), byID(id)); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

type passwordHash struct {
	Password string `db:"password"`
}

func (r *repositoryImpl) UpdatePassword(ctx context.Context, id, hash string) error {
	if err := r.users.Update(ctx, shared.TransformFields(passwordHash{Password: hash}, id), byID(id)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
