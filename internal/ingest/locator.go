package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// Locator resolves bare model references to files in a source directory.
type Locator struct {
	dir  string
	exts []string
}

// NewLocator searches dir for files with the given extensions, preferring
// earlier extensions.
func NewLocator(dir string, exts ...string) *Locator {
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}
	return &Locator{dir: dir, exts: exts}
}

// Resolve returns ref itself when it names an existing file. Otherwise it
// returns the first file in the source directory whose name contains ref,
// ignoring case.
func (l *Locator) Resolve(ref string) (string, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil
	}
	if filepath.IsAbs(ref) || l.dir == "" {
		return "", domain.IOError(fmt.Sprintf("no source file for %q", ref), os.ErrNotExist)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return "", domain.IOError("read source directory "+l.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	base := filepath.Base(ref)
	needle := strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
	for _, ext := range l.exts {
		for _, name := range names {
			if !strings.EqualFold(filepath.Ext(name), ext) {
				continue
			}
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			if strings.Contains(strings.ToUpper(stem), needle) {
				return filepath.Join(l.dir, name), nil
			}
		}
	}
	return "", domain.IOError(fmt.Sprintf("no source file for %q in %s", ref, l.dir), os.ErrNotExist)
}
