package user

import (
	"time"

	"gousers/internal/domain"
)

// RegisterRequest representa o payload de registro.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100" example:"Ana"`
	LastName  string `json:"lastName" validate:"required,max=100" example:"Souza"`
	Email     string `json:"email" validate:"required,email,max=255" example:"ana@example.com"`
	Phone     string `json:"phone" validate:"omitempty,max=50" example:"+55 11 99999-0000"`
	Password  string `json:"password" validate:"required,min=6,max=72" example:"segredo123"`
	Country   string `json:"country" validate:"omitempty,max=100" example:"Brasil"`
	City      string `json:"city" validate:"omitempty,max=100" example:"São Paulo"`
	Street    string `json:"street" validate:"omitempty,max=255" example:"Av. Paulista, 1000"`
	Role      string `json:"role" validate:"omitempty" example:"USER"`
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ana@example.com"`
	Password string `json:"password" validate:"required" example:"segredo123"`
}

// UpdateRequest é uma atualização parcial: campos ausentes não são alterados.
type UpdateRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=100"`
	Email     *string `json:"email" validate:"omitnil,email,max=255"`
	Phone     *string `json:"phone" validate:"omitnil,max=50"`
	Country   *string `json:"country" validate:"omitnil,max=100"`
	City      *string `json:"city" validate:"omitnil,max=100"`
	Street    *string `json:"street" validate:"omitnil,max=255"`
}

// DeleteRequest confirma a remoção com a senha atual.
type DeleteRequest struct {
	Password string `json:"password" validate:"required" example:"segredo123"`
}

// UserResponse é a visão pública do usuário; nunca contém a senha.
type UserResponse struct {
	ID        int64     `json:"id" example:"1"`
	FirstName string    `json:"firstName" example:"Ana"`
	LastName  string    `json:"lastName" example:"Souza"`
	Email     string    `json:"email" example:"ana@example.com"`
	Phone     string    `json:"phone" example:"+55 11 99999-0000"`
	Country   string    `json:"country" example:"Brasil"`
	City      string    `json:"city" example:"São Paulo"`
	Street    string    `json:"street" example:"Av. Paulista, 1000"`
	Role      string    `json:"role" example:"USER"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserPageResponse documenta a página de usuários no Swagger.
type UserPageResponse = domain.Page[UserResponse]

// LoginResponse carrega o token emitido.
type LoginResponse struct {
	Token            string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresInSeconds int64  `json:"expiresInSeconds" example:"3600"`
}

// MessageResponse é uma resposta de confirmação simples.
type MessageResponse struct {
	Message string `json:"message" example:"Usuário removido com sucesso."`
}

// ToResponse converte o registro de domínio na visão pública.
func ToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Country:   u.Country,
		City:      u.City,
		Street:    u.Street,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r RegisterRequest) toDomain(role domain.UserRole) domain.UserRegistration {
	return domain.UserRegistration{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
		Country:   r.Country,
		City:      r.City,
		Street:    r.Street,
		Role:      role,
	}
}

func (r UpdateRequest) toDomain() domain.UserUpdate {
	return domain.UserUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Country:   r.Country,
		City:      r.City,
		Street:    r.Street,
	}
}
