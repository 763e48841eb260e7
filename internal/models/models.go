package models

import "time"

// PostalRecord is the address data for a single CEP
// JSON tags define how records are returned by the API
type PostalRecord struct {
	ID           int64      `json:"id,omitempty"`         // Assigned by the store on insert
	Code         string     `json:"code"`                 // Normalized CEP, 8 digits
	Street       string     `json:"street"`               // Logradouro
	Complement   string     `json:"complement,omitempty"` // Complemento (upstream only, not persisted)
	Neighborhood string     `json:"neighborhood"`         // Bairro
	City         string     `json:"city"`                 // Localidade
	State        string     `json:"state"`                // UF
	QueriedAt    *time.Time `json:"queried_at,omitempty"` // Set only when fetched from the upstream API
}

// CEPRequest is the body accepted by POST /api/cep
type CEPRequest struct {
	CEP string `json:"cep" validate:"required"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
