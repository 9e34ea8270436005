// Package state persists the outputs of a provisioning apply and the journal
// of key uploads. The recorded outputs are how the upload step resolves the
// secret container without touching the network: if provisioning has not run,
// the outputs row is simply absent.
package state

import (
	"time"

	"github.com/google/uuid"
)

// Outputs is the recorded result of a provisioning apply, one row per
// project/environment pair. Reapplying updates the row in place.
type Outputs struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Project     string `gorm:"uniqueIndex:idx_outputs_scope"`
	Environment string `gorm:"uniqueIndex:idx_outputs_scope"`

	SecretName         string
	SecretARN          string
	RoleName           string
	RoleARN            string
	PolicyARN          string
	InstanceProfileARN string
	KMSKeyID           string

	Tags map[string]string `gorm:"serializer:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Upload is one entry in the append-only journal of secret versions pushed by
// the key materialization step. Rows are never updated.
type Upload struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Project     string
	Environment string

	SecretName  string
	VersionID   string
	Fingerprint string
	Description string

	CreatedAt time.Time
}
