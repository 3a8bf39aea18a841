package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// TableReader converts a binary extract (xlsx, parquet) into a table.
type TableReader interface {
	Read(ctx context.Context, name string, data []byte) (*table.Table, error)
}

// Config configures a Loader.
type Config struct {
	Logger *slog.Logger
	Source Source
	// Reader handles non-CSV extracts. Without one they are reported as
	// malformed.
	Reader TableReader
}

func (c *Config) Validate() error {
	if c.Source == nil {
		return fmt.Errorf("source is required")
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Loader turns the raw extract of a category into a Table.
type Loader struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loader{log: cfg.Logger, cfg: cfg}, nil
}

// Load returns ErrNotFound when the category has no extract and ErrMalformed
// when it cannot be parsed. Other errors come from the source.
func (l *Loader) Load(ctx context.Context, category table.Category) (*table.Table, error) {
	obj, err := l.cfg.Source.Fetch(ctx, category)
	if err != nil {
		return nil, err
	}
	return l.Parse(ctx, obj)
}

// Parse dispatches on the object's extension.
func (l *Loader) Parse(ctx context.Context, obj *Object) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(obj.Name))
	switch ext {
	case ".csv", ".txt":
		t, profile, err := ParseCSV(obj.Name, obj.Data)
		if err != nil {
			return nil, err
		}
		l.log.Debug("loader: parsed csv", "name", obj.Name, "rows", profile.Rows, "columns", len(profile.Columns))
		return t, nil
	default:
		if l.cfg.Reader == nil {
			return nil, fmt.Errorf("%s: no reader for %q: %w", obj.Name, ext, ErrMalformed)
		}
		t, err := l.cfg.Reader.Read(ctx, obj.Name, obj.Data)
		if err != nil {
			return nil, err
		}
		l.log.Debug("loader: read extract", "name", obj.Name, "rows", t.Len(), "columns", len(t.Columns()))
		return t, nil
	}
}
