package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/ex-server/internal/mailer"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
	"github.com/ignatzorin/ex-server/internal/repository"
)

// Сроки жизни одноразовых кодов.
const (
	VerificationCodeTTL = 15 * time.Minute
	ResetCodeTTL        = 5 * time.Minute
)

// CodeStore описывает хранилище одноразовых кодов.
type CodeStore interface {
	FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*models.OneTimeCode, error)
	Create(ctx context.Context, code *models.OneTimeCode) error
	VerifyUser(ctx context.Context, userID uuid.UUID, code string, now time.Time) error
	ResetPassword(ctx context.Context, userID uuid.UUID, code string, hashPassword func() (string, error), now time.Time) error
}

// CodeOutcome описывает результат запроса или ввода кода, не являющийся ошибкой.
type CodeOutcome int

const (
	CodeSent CodeOutcome = iota
	CodeAlreadySent
	AlreadyVerified
	Verified
)

// VerificationService выдаёт и гасит одноразовые коды подтверждения email и сброса пароля.
type VerificationService struct {
	users    UserStore
	codes    CodeStore
	mailer   mailer.Sender
	hasher   PasswordHasher
	generate func() (string, error)
	now      func() time.Time
}

func NewVerificationService(users UserStore, codes CodeStore, sender mailer.Sender, hasher PasswordHasher) *VerificationService {
	return &VerificationService{
		users:    users,
		codes:    codes,
		mailer:   sender,
		hasher:   hasher,
		generate: GenerateCode,
		now:      time.Now,
	}
}

// RequestVerification отправляет код подтверждения email.
func (s *VerificationService) RequestVerification(ctx context.Context, email string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if user.Verified {
		return AlreadyVerified, nil
	}

	return s.issue(ctx, user, models.CodePurposeVerification)
}

// VerifyEmail гасит код подтверждения и помечает пользователя подтверждённым.
func (s *VerificationService) VerifyEmail(ctx context.Context, email, code string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if user.Verified {
		return AlreadyVerified, nil
	}

	if err := s.codes.VerifyUser(ctx, user.ID, code, s.now()); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return 0, apperror.ErrInvalidVerificationCode
		}
		return 0, fmt.Errorf("verification service: verify email %w", err)
	}

	return Verified, nil
}

// RequestPasswordReset отправляет код сброса пароля.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	return s.issue(ctx, user, models.CodePurposeReset)
}

// ResetPassword гасит код сброса, меняет пароль и отзывает все сессии пользователя.
func (s *VerificationService) ResetPassword(ctx context.Context, email, code, password string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	hashPassword := func() (string, error) { return s.hasher.Hash(password) }

	if err := s.codes.ResetPassword(ctx, user.ID, code, hashPassword, s.now()); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return apperror.ErrInvalidResetCode
		}
		return fmt.Errorf("verification service: reset password %w", err)
	}

	return nil
}

func (s *VerificationService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnknownEmail
		}
		return nil, fmt.Errorf("verification service: lookup %w", err)
	}
	return user, nil
}

// issue создаёт код, если у пользователя нет действующего, и отправляет его письмом.
// При ошибке отправки код остаётся в базе.
func (s *VerificationService) issue(ctx context.Context, user *models.User, purpose models.CodePurpose) (CodeOutcome, error) {
	now := s.now()

	_, err := s.codes.FindActive(ctx, user.ID, now)
	switch {
	case err == nil:
		return CodeAlreadySent, nil
	case !errors.Is(err, repository.ErrCodeNotFound):
		return 0, fmt.Errorf("verification service: find active code %w", err)
	}

	value, err := s.generate()
	if err != nil {
		return 0, fmt.Errorf("verification service: %w", err)
	}

	ttl, msg, deliveryErr := VerificationCodeTTL, mailer.VerificationCodeMessage(user.Email, value), apperror.ErrVerificationDelivery
	if purpose == models.CodePurposeReset {
		ttl, msg, deliveryErr = ResetCodeTTL, mailer.ResetPasswordCodeMessage(user.Email, value), apperror.ErrResetDelivery
	}

	code := &models.OneTimeCode{
		UserID:    user.ID,
		Code:      value,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return 0, fmt.Errorf("verification service: create code %w", err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return 0, apperror.Wrap(err, deliveryErr.Code, deliveryErr.Message)
	}

	return CodeSent, nil
}
