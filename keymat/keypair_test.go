package keymat_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/richardndungu94/secretsmith/keymat"
)

func TestGenerate_RoundTrip(t *testing.T) {
	t.Parallel()

	kp, err := keymat.Generate("atlas-dev deploy key")
	require.NoError(t, err)

	signer, err := ssh.ParsePrivateKey(kp.PrivatePEM)
	require.NoError(t, err, "private half parses back as an OpenSSH key")
	assert.Equal(t, ssh.KeyAlgoED25519, signer.PublicKey().Type())

	pub, comment, _, _, err := ssh.ParseAuthorizedKey(kp.PublicLine)
	require.NoError(t, err, "public half is a valid authorized_keys line")
	assert.Equal(t, "atlas-dev deploy key", comment)
	assert.Equal(t, signer.PublicKey().Marshal(), pub.Marshal(), "both halves belong to the same pair")

	assert.Equal(t, ssh.FingerprintSHA256(pub), kp.Fingerprint)
	assert.True(t, strings.HasPrefix(kp.Fingerprint, "SHA256:"))
}

func TestGenerate_PairsAreUnique(t *testing.T) {
	t.Parallel()

	a, err := keymat.Generate("")
	require.NoError(t, err)
	b, err := keymat.Generate("")
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestFingerprintOf(t *testing.T) {
	t.Parallel()

	kp, err := keymat.Generate("box")
	require.NoError(t, err)

	fp, err := keymat.FingerprintOf(string(kp.PublicLine))
	require.NoError(t, err)
	assert.Equal(t, kp.Fingerprint, fp)

	_, err = keymat.FingerprintOf("not a key")
	assert.Error(t, err)
}

func TestWriteFiles_Permissions(t *testing.T) {
	t.Parallel()

	kp, err := keymat.Generate("perm")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "ssh")
	priv := filepath.Join(dir, "id_ed25519")
	pub := priv + ".pub"
	require.NoError(t, kp.WriteFiles(priv, pub))

	di, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), di.Mode().Perm())

	pi, err := os.Stat(priv)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), pi.Mode().Perm())

	bi, err := os.Stat(pub)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), bi.Mode().Perm())

	got, err := os.ReadFile(priv)
	require.NoError(t, err)
	assert.Equal(t, kp.PrivatePEM, got)

	assert.True(t, keymat.Exists(priv))
	assert.False(t, keymat.Exists(priv+".missing"))
}
