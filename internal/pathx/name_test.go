package pathx

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "report.pdf", true},
		{"spaces and unicode", "Отчёт 2024.txt", true},
		{"dotfile", ".profile", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"traversal", "../etc/passwd", false},
		{"nested", "a/b", false},
		{"backslash", `..\win.ini`, false},
		{"nul", "a\x00b", false},
		{"newline", "a\nb", false},
		{"too long", strings.Repeat("x", 256), false},
		{"max length", strings.Repeat("x", 255), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrInvalidName)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	root := filepath.Join("srv", "Groups")

	p, err := Join(root, "team", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "team", "notes.txt"), p)

	_, err = Join(root, "team", "../../x")
	assert.ErrorIs(t, err, common.ErrInvalidName)

	_, err = Join(root, "..", "x")
	assert.ErrorIs(t, err, common.ErrInvalidName)
}
