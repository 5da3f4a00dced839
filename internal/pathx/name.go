// Package pathx validates the user-supplied names that become path
// segments: group names and filenames.
package pathx

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

// MaxNameLength is the longest accepted name in bytes.
const MaxNameLength = 255

// ValidateName rejects anything that is not a single, plain path segment.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", common.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", common.ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d bytes", common.ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", common.ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains a control character", common.ErrInvalidName, name)
		}
	}
	return nil
}

// Join validates each segment and joins them under root. The result is
// guaranteed to stay inside root.
func Join(root string, segments ...string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, root)
	for _, s := range segments {
		if err := ValidateName(s); err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	p := filepath.Join(parts...)

	rel, err := filepath.Rel(filepath.Clean(root), p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: escapes %s", common.ErrInvalidName, root)
	}
	return p, nil
}
