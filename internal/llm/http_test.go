package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("한", 400)
	out := truncate(body, 300)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, strings.Repeat("한", 300)+"...", out)
	require.Equal(t, "short", truncate("short", 300))
}
