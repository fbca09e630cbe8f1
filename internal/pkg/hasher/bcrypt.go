// Package hasher encapsula o algoritmo de hash de senhas.
package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher gera e compara hashes de senha.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare retorna true quando a senha em texto puro corresponde ao hash.
	Compare(hash, password string) bool
}

// BcryptHasher implementa PasswordHasher com bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcrypt cria o hasher; custos fora da faixa aceita pelo bcrypt usam bcrypt.DefaultCost.
func NewBcrypt(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost retorna o custo efetivo.
func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
