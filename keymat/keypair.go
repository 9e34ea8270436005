// Package keymat generates the ed25519 key pair, writes it under the
// operator's SSH directory, and packages it as the versioned payload the
// secret container stores.
package keymat

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// KeyPair is a freshly generated ed25519 pair, already encoded for disk and
// for the payload: the private half as OpenSSH PEM, the public half as a
// single authorized_keys line.
type KeyPair struct {
	PrivatePEM  []byte
	PublicLine  []byte
	Fingerprint string
}

// Generate mints a new ed25519 pair. comment ends up in both encoded halves
// so operators can tell keys apart in ~/.ssh and in authorized_keys files.
func Generate(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("encode private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	line := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		// MarshalAuthorizedKey drops the comment; append it the way
		// ssh-keygen does.
		line = append(line[:len(line)-1], []byte(" "+comment+"\n")...)
	}

	return &KeyPair{
		PrivatePEM:  pem.EncodeToMemory(block),
		PublicLine:  line,
		Fingerprint: ssh.FingerprintSHA256(sshPub),
	}, nil
}

// FingerprintOf returns the SHA256 fingerprint of an authorized_keys line,
// as written by a previous upload.
func FingerprintOf(publicLine string) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicLine))
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}

// Exists reports whether a file is already present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFiles writes the private half to privPath (0600) and the public half
// to pubPath (0644), creating the parent directory when needed.
func (kp *KeyPair) WriteFiles(privPath, pubPath string) error {
	if err := os.MkdirAll(filepath.Dir(privPath), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(privPath, kp.PrivatePEM, 0o600); err != nil {
		return fmt.Errorf("write private key %q: %w", privPath, err)
	}
	if err := os.WriteFile(pubPath, kp.PublicLine, 0o644); err != nil {
		return fmt.Errorf("write public key %q: %w", pubPath, err)
	}
	return nil
}
