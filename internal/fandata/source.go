package fandata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
)

// Source loads the fan follow dataset.
type Source interface {
	Load(ctx context.Context) ([]fans.FollowRecord, error)
}

// Config selects where follow records come from.
type Config struct {
	URL    string
	File   string
	Getter providers.Getter
	Logger *slog.Logger
}

// NewSource returns a FileSource when only File is set, an HTTPSource otherwise.
// A nil Source means the dataset is not configured.
func NewSource(cfg Config) Source {
	switch {
	case cfg.URL == "" && cfg.File == "":
		return nil
	case cfg.URL == "":
		return NewFileSource(cfg.File, cfg.Logger)
	default:
		return &HTTPSource{url: cfg.URL, getter: cfg.Getter, mirror: cfg.File, logger: cfg.Logger}
	}
}

// HTTPSource downloads the dataset through the shared fetch path. When a mirror path is
// set, each good download is written there and read back if a later download fails.
type HTTPSource struct {
	url    string
	getter providers.Getter
	mirror string
	logger *slog.Logger
}

func NewHTTPSource(url string, getter providers.Getter, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{url: url, getter: getter, logger: logger}
}

func (s *HTTPSource) Load(ctx context.Context) ([]fans.FollowRecord, error) {
	if s.getter == nil {
		return nil, providers.ErrProviderUnavailable
	}
	body, err := s.getter.Get(ctx, s.url)
	if err != nil {
		if s.mirror == "" {
			return nil, fmt.Errorf("fandata: download: %w", err)
		}
		logging.Warn(s.logger, "follow dataset download failed, reading mirror", "mirror", s.mirror, "error", err)
		return NewFileSource(s.mirror, s.logger).Load(ctx)
	}

	records := decode(body, s.url, s.logger)
	if s.mirror != "" && len(records) > 0 {
		if err := writeMirror(s.mirror, body); err != nil {
			logging.Warn(s.logger, "could not write follow dataset mirror", "mirror", s.mirror, "error", err)
		}
	}
	return records, nil
}

// FileSource reads the dataset from disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Load(ctx context.Context) ([]fans.FollowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.path == "" {
		return nil, errors.New("fandata: file path required")
	}
	body, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("fandata: read %s: %w", s.path, err)
	}
	return decode(body, s.path, s.logger), nil
}

func decode(body []byte, origin string, logger *slog.Logger) []fans.FollowRecord {
	raw, malformed := providers.ParseRecords(body)
	for _, m := range malformed {
		logging.Warn(logger, "dropping malformed follow record", "source", origin, "line", m.Line, "error", m.Err)
	}
	records := providers.DecodeRecords[fans.FollowRecord](raw, logger)
	logging.Debug(logger, "loaded follow dataset", "source", origin, logging.FieldCount, len(records))
	return records
}

// writeMirror replaces path atomically via a temp file.
func writeMirror(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadOptional loads the dataset when src is set. Failures are logged at error level and
// yield no records, so popularity degrades to zero instead of failing the caller.
func LoadOptional(ctx context.Context, src Source, logger *slog.Logger) []fans.FollowRecord {
	if src == nil {
		return nil
	}
	records, err := src.Load(ctx)
	if err != nil {
		logging.Error(logger, "follow dataset unavailable, continuing without followers", err)
		return nil
	}
	return records
}
