package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/omniql-engine/flatql/engine/codec"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// FileSource stores each table in <dir>/<table><ext>, encoded by a codec.
type FileSource struct {
	dir   string
	codec codec.Codec
	opts  codec.Options
}

// NewFileSource creates dir when missing.
func NewFileSource(dir string, c codec.Codec, opts codec.Options) (*FileSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dberrors.NewConnectionError("store.open", err, "cannot create database directory %s", dir)
	}
	return &FileSource{dir: dir, codec: c, opts: opts}, nil
}

// Path returns the file backing table.
func (f *FileSource) Path(table string) string {
	return filepath.Join(f.dir, table+f.codec.Extension())
}

func (f *FileSource) Load(ctx context.Context, table string) ([]models.Record, error) {
	path := f.Path(table)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.Save(ctx, table, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "cannot read %s", path)
	}
	records, err := f.codec.Decode(data)
	if err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "cannot decode %s", path)
	}
	return records, nil
}

// Save writes through a temporary file and renames it over the table file,
// so readers never see a half-written table.
func (f *FileSource) Save(_ context.Context, table string, records []models.Record) error {
	opts := f.opts
	opts.Table = table
	data, err := f.codec.Encode(records, opts)
	if err != nil {
		return dberrors.NewConnectionError("store.save", err, "cannot encode table %s", table)
	}

	path := f.Path(table)
	tmp, err := os.CreateTemp(f.dir, "."+table+".*.tmp")
	if err != nil {
		return dberrors.NewConnectionError("store.save", err, "cannot write %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return dberrors.NewConnectionError("store.save", err, "cannot write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return dberrors.NewConnectionError("store.save", err, "cannot write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return dberrors.NewConnectionError("store.save", err, "cannot replace %s", path)
	}
	return nil
}

func (f *FileSource) Tables(context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, dberrors.NewConnectionError("store.tables", err, "cannot list %s", f.dir)
	}
	ext := f.codec.Extension()
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ext))
	}
	sort.Strings(names)
	return names, nil
}
