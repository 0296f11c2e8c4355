package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tradelog-dev/tradelog/internal/mapping"
)

// Dialect describes one broker's trade-history export.
type Dialect struct {
	Name     string
	Synonyms mapping.Table
	Notes    string   // stamped on every imported record
	Tags     []string // stamped on every imported record
}

// Registry holds named dialects.
type Registry struct {
	dialects map[string]Dialect
}

// FileInfo describes a CSV file in the inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty dialect registry.
func NewRegistry() *Registry {
	return &Registry{dialects: make(map[string]Dialect)}
}

// Register adds a dialect. Panics on duplicate name.
func (r *Registry) Register(d Dialect) {
	key := strings.ToLower(d.Name)
	if _, ok := r.dialects[key]; ok {
		panic("duplicate dialect: " + key)
	}
	r.dialects[key] = d
}

// Get returns the dialect called name.
func (r *Registry) Get(name string) (Dialect, bool) {
	d, ok := r.dialects[strings.ToLower(name)]
	return d, ok
}

// Names returns the registered dialect names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dialects))
	for k := range r.dialects {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in dialects.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(MT5())
	return r
}

// MT5 is the MetaTrader 5 trade-history export.
func MT5() Dialect {
	return Dialect{
		Name:     "mt5",
		Synonyms: mapping.DefaultTable(),
		Notes:    "Imported via MT5 CSV.",
		Tags:     []string{"CSV Import", "MT5"},
	}
}

// processedSubdir receives files once they are imported.
const processedSubdir = "processed"

// Scan returns CSV files directly inside dir, sorted by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, processedSubdir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
