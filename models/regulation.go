package models

// Regulation describes one regulation's baseline expectations.
type Regulation struct {
	RequiredClauses []string `json:"required_clauses"`
}

// Regulations maps regulation name (GDPR, HIPAA, ...) to its expectations.
type Regulations map[string]Regulation
