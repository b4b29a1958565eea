package models

import (
	"time"

	"github.com/google/uuid"
)

// CodePurpose определяет назначение одноразового кода.
// В базе назначение не хранится, оно задаёт только срок жизни и эффект.
type CodePurpose string

const (
	CodePurposeVerification CodePurpose = "verification"
	CodePurposeReset        CodePurpose = "reset"
)

// OneTimeCode хранит шестизначный код, отправленный пользователю на почту.
type OneTimeCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Code      string    `db:"code" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
