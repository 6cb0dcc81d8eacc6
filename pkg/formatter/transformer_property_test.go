package formatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Formatting a module whose docstring is arbitrary prose must reach a fixed
// point after one pass, and the code around the docstring must survive
// byte for byte.
func TestTransformFixedPointProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(
			rapid.StringMatching(`[a-zA-Z]{1,12}`), 1, 40,
		).Draw(t, "words")
		indent := rapid.IntRange(0, 8).Draw(t, "indent")
		width := rapid.IntRange(20, 100).Draw(t, "width")
		if width-indent < 12 {
			width = indent + 12
		}

		pad := strings.Repeat(" ", indent)
		trailer := "x = 1\n"
		src := fmt.Sprintf("%s\"\"\"%s\"\"\"\n%s", pad, strings.Join(words, "  "), trailer)

		tr := newTestTransformer(width, true)
		once, _, errs, err := tr.Transform("mod.py", src)
		require.NoError(t, err)
		require.Zero(t, errs)
		require.True(t, strings.HasSuffix(once, "\n"+trailer) || strings.HasSuffix(once, trailer))

		twice, changed, errs, err := tr.Transform("mod.py", once)
		require.NoError(t, err)
		require.Zero(t, errs)
		require.False(t, changed)
		require.Equal(t, once, twice)
	})
}
