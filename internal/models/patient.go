package models

import "time"

type Patient struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Professional struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	UserID    *int      `json:"user_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
