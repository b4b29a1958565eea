package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/service"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*service.LoginResult)
	return res, args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockCodes struct{ mock.Mock }

func (m *mockCodes) RequestVerification(ctx context.Context, email string) (service.CodeOutcome, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(service.CodeOutcome), args.Error(1)
}

func (m *mockCodes) VerifyEmail(ctx context.Context, email, code string) (service.CodeOutcome, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(service.CodeOutcome), args.Error(1)
}

func (m *mockCodes) RequestPasswordReset(ctx context.Context, email string) (service.CodeOutcome, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(service.CodeOutcome), args.Error(1)
}

func (m *mockCodes) ResetPassword(ctx context.Context, email, code, password string) error {
	return m.Called(ctx, email, code, password).Error(0)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) ListAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *mockAccounts) Search(ctx context.Context, query string) ([]models.User, error) {
	args := m.Called(ctx, query)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *mockAccounts) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error) {
	args := m.Called(ctx, userID, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) UpdatePicture(ctx context.Context, userID uuid.UUID, upload service.PictureUpload) (*models.User, error) {
	args := m.Called(ctx, userID, upload)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) Delete(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
