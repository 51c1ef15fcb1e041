package fandata

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGetter struct {
	body []byte
	err  error
}

func (s *stubGetter) Get(ctx context.Context, url string) ([]byte, error) {
	return s.body, s.err
}

const ndjson = "\ufeff{\"user_id\":\"a\",\"followed_player_ids\":[1,2],\"followed_team_ids\":[147]}\n\n{broken\n{\"user_id\":7,\"followed_player_ids\":[2]}\n"

func TestNewSourceSelection(t *testing.T) {
	assert.Nil(t, NewSource(Config{}))
	assert.IsType(t, &FileSource{}, NewSource(Config{File: "fans.json"}))
	assert.IsType(t, &HTTPSource{}, NewSource(Config{URL: "http://example.com/fans.json"}))
	assert.IsType(t, &HTTPSource{}, NewSource(Config{URL: "http://example.com/fans.json", File: "fans.json"}))
}

func TestHTTPSourceParsesNDJSON(t *testing.T) {
	src := NewHTTPSource("http://example.com/fans.json", &stubGetter{body: []byte(ndjson)}, nil)

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []int{1, 2}, records[0].FollowedPlayerIDs)
	assert.Equal(t, "7", string(records[1].UserID))
}

func TestHTTPSourceParsesArray(t *testing.T) {
	body := `[{"user_id":"a","followed_team_ids":[111]},{"user_id":"b"}]`
	src := NewHTTPSource("http://example.com/fans.json", &stubGetter{body: []byte(body)}, nil)

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHTTPSourceErrorsWithoutMirror(t *testing.T) {
	src := NewHTTPSource("http://example.com/fans.json", &stubGetter{err: errors.New("down")}, nil)
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestHTTPSourceMirrorsAndFallsBack(t *testing.T) {
	mirror := filepath.Join(t.TempDir(), "data", "fans.json")
	getter := &stubGetter{body: []byte(ndjson)}
	src := NewSource(Config{URL: "http://example.com/fans.json", File: mirror, Getter: getter})

	_, err := src.Load(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(mirror)
	require.NoError(t, err)

	getter.body, getter.err = nil, errors.New("down")
	records, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fans.json")
	require.NoError(t, os.WriteFile(path, []byte(ndjson), 0o644))

	records, err := NewFileSource(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json"), nil).Load(context.Background())
	assert.Error(t, err)
}

func TestLoadOptionalDegradesToEmpty(t *testing.T) {
	assert.Nil(t, LoadOptional(context.Background(), nil, nil))

	failing := NewHTTPSource("http://example.com/fans.json", &stubGetter{err: errors.New("down")}, nil)
	assert.Nil(t, LoadOptional(context.Background(), failing, nil))

	ok := NewHTTPSource("http://example.com/fans.json", &stubGetter{body: []byte(ndjson)}, nil)
	assert.Len(t, LoadOptional(context.Background(), ok, nil), 2)
}

func TestLoadOptionalLogsFailureAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := NewHTTPSource("http://example.com/fans.json", &stubGetter{err: errors.New("deadline exceeded")}, nil)

	assert.Nil(t, LoadOptional(context.Background(), failing, logger))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "deadline exceeded")
}
