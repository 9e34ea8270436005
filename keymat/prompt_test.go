package keymat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardndungu94/secretsmith/keymat"
)

func TestConfirm(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]bool{
		"y\n":    true,
		"Y\n":    true,
		"yes\n":  true,
		"YES\n":  true,
		"n\n":    false,
		"no\n":   false,
		"\n":     false,
		"maybe\n": false,
		"":       false, // EOF without an answer
	} {
		var out strings.Builder
		p := &keymat.Prompter{In: strings.NewReader(input), Out: &out}
		ok, err := p.Confirm("Overwrite")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "input %q", input)
		assert.Equal(t, "Overwrite [y/N]: ", out.String())
	}
}
