package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/config"
	"github.com/jonathan/coursecraft/internal/db"
)

// OperatorStore is the persistence surface the operator service depends on.
// *db.DB satisfies it; tests substitute an in-memory implementation.
type OperatorStore interface {
	CheckOperatorEmailExists(ctx context.Context, email string) (bool, error)
	CreateOperator(ctx context.Context, name, email string) (uuid.UUID, error)
	GetOperator(ctx context.Context, operatorID uuid.UUID) (*db.Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (*db.Operator, error)
	UpdateOperatorPassword(ctx context.Context, operatorID uuid.UUID, passwordHash string) error
}

// OperatorService provides business logic for operator authentication
type OperatorService struct {
	store          OperatorStore
	passwordConfig *config.PasswordConfig
}

// NewOperatorService creates an OperatorService with the given dependencies
func NewOperatorService(store OperatorStore, passwordConfig *config.PasswordConfig) *OperatorService {
	return &OperatorService{
		store:          store,
		passwordConfig: passwordConfig,
	}
}

// OperatorInfo is the operator representation returned to clients. The
// password hash is never included.
type OperatorInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func operatorInfo(op *db.Operator) *OperatorInfo {
	if op == nil {
		return nil
	}
	return &OperatorInfo{
		ID:    op.ID,
		Name:  op.Name,
		Email: op.Email,
	}
}

// Register creates a new operator with password authentication
func (s *OperatorService) Register(ctx context.Context, name, email, password string) (*OperatorInfo, error) {
	exists, err := s.store.CheckOperatorEmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	operatorID, err := s.store.CreateOperator(ctx, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}

	if err := s.store.UpdateOperatorPassword(ctx, operatorID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	op, err := s.store.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created operator: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("created operator not found: %s", operatorID)
	}

	return operatorInfo(op), nil
}

// Login authenticates an operator by email and password
func (s *OperatorService) Login(ctx context.Context, email, password string) (*OperatorInfo, error) {
	op, err := s.store.GetOperatorByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator by email: %w", err)
	}

	// A generic error regardless of whether the account exists, so the
	// endpoint cannot be used to enumerate registered emails.
	if op == nil || !op.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(password, op.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return operatorInfo(op), nil
}

// UpdatePassword changes an operator's password after verifying the current one
func (s *OperatorService) UpdatePassword(ctx context.Context, operatorID uuid.UUID, currentPassword, newPassword string) error {
	op, err := s.store.GetOperator(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("failed to get operator: %w", err)
	}
	if op == nil {
		return &ErrOperatorNotFound{OperatorID: operatorID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, op.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.store.UpdateOperatorPassword(ctx, operatorID, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
