package keymat

import (
	"encoding/json"
	"fmt"
	"time"
)

// KeyType is the fixed algorithm label carried by every payload.
const KeyType = "ed25519"

// Payload is the bit-exact wire contract for a secret version: exactly five
// string fields.
type Payload struct {
	PrivateKey  string `json:"private_key"`
	PublicKey   string `json:"public_key"`
	KeyType     string `json:"key_type"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
}

// AssemblePayload builds the JSON document for one upload, stamping now in
// UTC.
func AssemblePayload(kp *KeyPair, description string, now time.Time) (string, error) {
	p := Payload{
		PrivateKey:  string(kp.PrivatePEM),
		PublicKey:   string(kp.PublicLine),
		KeyType:     KeyType,
		CreatedAt:   now.UTC().Format(time.RFC3339),
		Description: description,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("assemble payload: %w", err)
	}
	return string(raw), nil
}

// ParsePayload unmarshals and validates a stored payload.
func ParsePayload(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the five-field contract.
func (p *Payload) Validate() error {
	switch {
	case p.PrivateKey == "":
		return fmt.Errorf("payload is missing private_key")
	case p.PublicKey == "":
		return fmt.Errorf("payload is missing public_key")
	case p.Description == "":
		return fmt.Errorf("payload is missing description")
	case p.KeyType != KeyType:
		return fmt.Errorf("payload key_type is %q, want %q", p.KeyType, KeyType)
	}
	if _, err := time.Parse(time.RFC3339, p.CreatedAt); err != nil {
		return fmt.Errorf("payload created_at %q is not a valid timestamp: %w", p.CreatedAt, err)
	}
	return nil
}
