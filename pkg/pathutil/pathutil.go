// Package pathutil provides path canonicalization and matching helpers for fsnap.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jvs-project/fsnap/pkg/errclass"
)

// CanonicalRoot resolves root to an absolute, symlink-free directory path.
// It fails with E_INVALID_ROOT when root is empty, missing, or not a directory.
func CanonicalRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errclass.ErrInvalidRoot.WithMessage("root path must not be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errclass.ErrInvalidRoot.WithMessagef("cannot make %s absolute: %v", root, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errclass.ErrInvalidRoot.WithMessagef("%s does not exist", root)
		}
		return "", errclass.ErrInvalidRoot.WithMessagef("cannot resolve %s: %v", root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errclass.ErrInvalidRoot.WithMessagef("cannot stat %s: %v", root, err)
	}
	if !info.IsDir() {
		return "", errclass.ErrInvalidRoot.WithMessagef("%s is not a directory", root)
	}

	return resolved, nil
}

// NormalizeKey returns path in Unicode NFC when nfc is set, otherwise path unchanged.
// macOS filesystems commonly return NFD names; NFC keys let such trees compare
// equal to trees captured elsewhere.
func NormalizeKey(path string, nfc bool) string {
	if !nfc {
		return path
	}
	return norm.NFC.String(path)
}

// ValidatePatterns checks that every pattern is a well-formed filepath.Match glob.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if p == "" {
			return fmt.Errorf("empty exclude pattern")
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", p, err)
		}
	}
	return nil
}

// MatchesAny reports whether name matches any of the glob patterns.
// Malformed patterns never match.
func MatchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
