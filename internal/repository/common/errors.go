package common

import (
	"errors"

	"github.com/lib/pq"
)

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
)

// uniqueViolation хранит SQLSTATE нарушения уникального ограничения в PostgreSQL.
const uniqueViolation = "23505"

// UniqueViolation сообщает, нарушено ли уникальное ограничение, и возвращает его имя.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
