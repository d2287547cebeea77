package text

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "short", Truncate("short", 0))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "..", Truncate("abcdefghij", 2))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	out := Truncate("€€€€", 8)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "€...", out)
}
