package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// Scope narrows a role check to a department or store. Zero values mean
// the assignment may match any scope.
type Scope struct {
	Department string
	StoreID    uuid.UUID
}

// Resolver answers whether an actor holds a workflow role.
type Resolver interface {
	HasRole(ctx context.Context, userID uuid.UUID, role enums.WorkflowRole, scope Scope) (bool, error)
	Require(ctx context.Context, userID uuid.UUID, role enums.WorkflowRole, scope Scope) error
}

// Repository loads role assignments for a user.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RoleAssignment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a role-assignment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

type resolver struct {
	repo Repository
}

// NewResolver wires a role resolver with the provided repository.
func NewResolver(repo Repository) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	return &resolver{repo: repo}, nil
}

func (r *resolver) HasRole(ctx context.Context, userID uuid.UUID, role enums.WorkflowRole, scope Scope) (bool, error) {
	if userID == uuid.Nil {
		return false, errors.New(errors.CodeValidation, "user id is required")
	}
	if !role.IsValid() {
		return false, errors.New(errors.CodeValidation, fmt.Sprintf("invalid workflow role %q", role))
	}

	assignments, err := r.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, errors.Wrap(errors.CodeDependency, err, "list role assignments")
	}
	for _, a := range assignments {
		if a.Role != role {
			continue
		}
		if scope.Department != "" && a.Department != nil && *a.Department != scope.Department {
			continue
		}
		if scope.StoreID != uuid.Nil && a.StoreID != nil && *a.StoreID != scope.StoreID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *resolver) Require(ctx context.Context, userID uuid.UUID, role enums.WorkflowRole, scope Scope) error {
	ok, err := r.HasRole(ctx, userID, role, scope)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.CodeForbidden, fmt.Sprintf("actor does not hold role %s", role))
	}
	return nil
}
