// Package config loads and validates the declaration file that describes the
// desired end state: the secret container, the identity role that may read
// it, and where the materialized key pair lives on the operator's machine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the declaration file name looked up in the working
	// directory when no --config flag is given.
	DefaultFile = "secretsmith.yaml"

	// DefaultKeyName is the base name of the key files written under the
	// operator's SSH directory.
	DefaultKeyName = "secretsmith_ed25519"

	// DefaultStatePath is the sqlite file holding recorded outputs and the
	// upload journal.
	DefaultStatePath = ".secretsmith/state.db"
)

// Config is the programmatic representation of the loaded declaration.
type Config struct {
	Project     string            `yaml:"project"`
	Environment string            `yaml:"environment"`
	Region      string            `yaml:"region"`
	Tags        map[string]string `yaml:"tags"`

	Secret   SecretConfig   `yaml:"secret"`
	Identity IdentityConfig `yaml:"identity"`
	Key      KeyConfig      `yaml:"key"`
	State    StateConfig    `yaml:"state"`
}

// SecretConfig describes the secret container.
type SecretConfig struct {
	// NamePrefix is combined with a minted suffix to form the container
	// name. The suffix is recorded in state so reapplies are stable.
	NamePrefix  string `yaml:"name_prefix"`
	Description string `yaml:"description"`

	// KMSKeyID optionally selects a customer managed key for the container.
	// Empty means the platform default key.
	KMSKeyID string `yaml:"kms_key_id"`

	// PublicKeyParameter optionally names an SSM parameter that receives the
	// public half after each upload. Empty disables publication.
	PublicKeyParameter string `yaml:"public_key_parameter"`
}

// IdentityConfig describes the role and policy granting read access.
type IdentityConfig struct {
	RoleName            string `yaml:"role_name"`
	PolicyName          string `yaml:"policy_name"`
	InstanceProfileName string `yaml:"instance_profile_name"`
}

// KeyConfig describes where the key pair is written locally.
type KeyConfig struct {
	// Dir defaults to ~/.ssh when empty.
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// StateConfig selects the state backend.
type StateConfig struct {
	// Path is the sqlite file used when DSN is empty.
	Path string `yaml:"path"`

	// DSN selects a shared postgres backend instead of local sqlite.
	DSN string `yaml:"dsn"`
}

// Load reads and parses the declaration file at path, then prepares it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration %q: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse declaration %q: %w", path, err)
	}
	if err := c.Prepare(); err != nil {
		return nil, fmt.Errorf("declaration %q: %w", path, err)
	}
	return &c, nil
}

// Prepare normalizes the declaration and fills in everything that can be
// inferred: derived resource names, tag metadata, and local paths. It returns
// an error for anything a later apply could not recover from.
func (c *Config) Prepare() error {
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}

	base := c.Project + "-" + c.Environment
	if c.Secret.NamePrefix == "" {
		c.Secret.NamePrefix = base + "-deploy-key"
	}
	if c.Secret.Description == "" {
		c.Secret.Description = "SSH deploy key for " + base
	}
	if c.Identity.RoleName == "" {
		c.Identity.RoleName = base + "-secret-reader"
	}
	if c.Identity.PolicyName == "" {
		c.Identity.PolicyName = base + "-secret-read"
	}
	if c.Identity.InstanceProfileName == "" {
		c.Identity.InstanceProfileName = c.Identity.RoleName
	}

	if c.Tags == nil {
		c.Tags = make(map[string]string, 2)
	}
	if _, ok := c.Tags["Project"]; !ok {
		c.Tags["Project"] = c.Project
	}
	if _, ok := c.Tags["Environment"]; !ok {
		c.Tags["Environment"] = c.Environment
	}

	if c.Key.Name == "" {
		c.Key.Name = DefaultKeyName
	}
	if c.Key.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		c.Key.Dir = filepath.Join(home, ".ssh")
	}

	if c.State.Path == "" && c.State.DSN == "" {
		c.State.Path = DefaultStatePath
	}

	return nil
}

// PrivateKeyPath returns the path the private half is written to.
func (c *Config) PrivateKeyPath() string {
	return filepath.Join(c.Key.Dir, c.Key.Name)
}

// PublicKeyPath returns the path the public half is written to.
func (c *Config) PublicKeyPath() string {
	return c.PrivateKeyPath() + ".pub"
}
