package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength задаёт количество цифр в одноразовом коде.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateCode возвращает шестизначный код из криптографически стойкого источника.
// Ведущие нули сохраняются.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
