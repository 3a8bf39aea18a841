package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NotHilal/PLM-Hackaton/table"
)

var (
	// ErrNotFound means no extract exists for a category. Callers fall back
	// to mock results.
	ErrNotFound = errors.New("table not found")
	// ErrMalformed means an extract exists but could not be parsed.
	ErrMalformed = errors.New("malformed table")
)

// Object is one raw extract as fetched from a source.
type Object struct {
	Name string // file name or object key; its extension selects the parser
	Data []byte
}

// Source fetches the raw extract of a category. It returns ErrNotFound when
// the category has no extract.
type Source interface {
	Fetch(ctx context.Context, category table.Category) (*Object, error)
}

// DefaultBaseNames are the extract names the plant exports use.
var DefaultBaseNames = map[table.Category]string{
	table.ERP: "ERP_Equipes Airplus",
	table.MES: "MES_Extraction",
	table.PLM: "PLM_DataSet",
}

// Extensions lists the supported formats in lookup order.
var Extensions = []string{".xlsx", ".csv", ".parquet"}

// candidateNames expands a base name into every supported file name.
func candidateNames(base string) []string {
	names := make([]string, len(Extensions))
	for i, ext := range Extensions {
		names[i] = base + ext
	}
	return names
}

// DirSource reads extracts from a local directory.
type DirSource struct {
	Dir       string
	BaseNames map[table.Category]string // defaults to DefaultBaseNames
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir, BaseNames: DefaultBaseNames}
}

func (s *DirSource) Fetch(ctx context.Context, category table.Category) (*Object, error) {
	base, ok := s.baseName(category)
	if !ok {
		return nil, fmt.Errorf("%s: %w", category, ErrNotFound)
	}
	for _, name := range candidateNames(base) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.Dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return &Object{Name: name, Data: data}, nil
	}
	return nil, fmt.Errorf("%s in %s: %w", category, s.Dir, ErrNotFound)
}

func (s *DirSource) baseName(category table.Category) (string, bool) {
	names := s.BaseNames
	if names == nil {
		names = DefaultBaseNames
	}
	base, ok := names[category]
	return base, ok
}
