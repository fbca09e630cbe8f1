package domain

import (
	"fmt"
	"strings"
	"time"
)

// User representa o registro persistido do usuário.
// O hash da senha nunca é serializado para o cliente.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// IsValid informa se o papel pertence à enumeração conhecida.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converte uma string (sem diferenciar maiúsculas) em UserRole.
// String vazia resulta no papel padrão RoleUser.
func ParseRole(s string) (UserRole, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleUser, nil
	}
	role := UserRole(strings.ToUpper(s))
	if !role.IsValid() {
		return "", fmt.Errorf("papel desconhecido: %q", s)
	}
	return role, nil
}

// NormalizeEmail padroniza o e-mail antes de buscas e gravações.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRegistration contém os dados de entrada do registro.
type UserRegistration struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Country   string
	City      string
	Street    string
	Role      UserRole
}

// Credentials é o par e-mail/senha usado no login.
type Credentials struct {
	Email    string
	Password string
}

// UserUpdate descreve uma atualização parcial: campos nil não alteram o registro.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Country   *string
	City      *string
	Street    *string
}

// IsEmpty retorna true quando nenhum campo foi informado.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Phone == nil &&
		u.Country == nil && u.City == nil && u.Street == nil
}

// ApplyTo copia os campos informados para o usuário.
func (u UserUpdate) ApplyTo(user *User) {
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.Email != nil {
		user.Email = NormalizeEmail(*u.Email)
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Country != nil {
		user.Country = *u.Country
	}
	if u.City != nil {
		user.City = *u.City
	}
	if u.Street != nil {
		user.Street = *u.Street
	}
}

// Principal é a identidade autenticada de uma requisição, derivada de um token válido.
// Não é persistida e não carrega dados de armazenamento.
type Principal struct {
	UserID int64
	Email  string
	Role   UserRole
}
