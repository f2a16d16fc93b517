package models

import "time"

// EmailVariant is one generated cold-email candidate.
type EmailVariant struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    string `json:"tone"`
}

// GenerateRequest is the client payload for POST /api/generate.
// All fields are required non-empty strings.
type GenerateRequest struct {
	Product      string `json:"product"`
	ProspectName string `json:"prospectName"`
	Company      string `json:"company"`
	Industry     string `json:"industry"`
	Tone         string `json:"tone"`
}

// EmailRecord is one row of the append-only generation history.
type EmailRecord struct {
	ID              string         `json:"id"`
	ProspectName    string         `json:"prospect_name"`
	ProspectCompany string         `json:"prospect_company"`
	Industry        string         `json:"industry"`
	Tone            string         `json:"tone"`
	Variants        []EmailVariant `json:"variants"`
	CreatedAt       time.Time      `json:"created_at"`
}
