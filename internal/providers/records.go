package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRecord is one undecoded JSON record.
type RawRecord = json.RawMessage

// Getter fetches the body behind a URL. Fetcher and Deduplicator both satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// GetJSON fetches url through g and decodes the body into dest.
func GetJSON(ctx context.Context, g Getter, url string, dest any) error {
	return getJSON(ctx, g, url, dest)
}

// GetRecords fetches url through g and splits the body with ParseRecords.
// Malformed lines are logged and dropped.
func GetRecords(ctx context.Context, g Getter, url string, logger *slog.Logger) ([]RawRecord, error) {
	return getRecords(ctx, g, url, logger)
}

func getJSON(ctx context.Context, g Getter, url string, dest any) error {
	body, err := g.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func getRecords(ctx context.Context, g Getter, url string, logger *slog.Logger) ([]RawRecord, error) {
	body, err := g.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	records, malformed := ParseRecords(body)
	for _, m := range malformed {
		logging.Warn(logger, "dropping malformed record", logging.FieldURL, url, "line", m.Line, "error", m.Err)
	}
	return records, nil
}

// ParseRecords accepts a JSON array, a single JSON object or newline-delimited JSON.
// A leading BOM is stripped and blank lines are skipped. Lines that are not valid JSON
// are returned as MalformedRecordErrors and do not abort the parse.
func ParseRecords(body []byte) ([]RawRecord, []*MalformedRecordError) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(body) == 0 {
		return nil, nil
	}

	switch body[0] {
	case '[':
		var arr []RawRecord
		if err := jsonAPI.Unmarshal(body, &arr); err == nil {
			return arr, nil
		}
	case '{':
		if json.Valid(body) {
			return []RawRecord{RawRecord(body)}, nil
		}
	}
	return parseLines(body)
}

func parseLines(body []byte) ([]RawRecord, []*MalformedRecordError) {
	var (
		records   []RawRecord
		malformed []*MalformedRecordError
	)
	for i, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			malformed = append(malformed, &MalformedRecordError{
				Line: i + 1,
				Err:  fmt.Errorf("invalid json: %.40q", line),
			})
			continue
		}
		records = append(records, RawRecord(bytes.Clone(line)))
	}
	return records, malformed
}

// DecodeRecords unmarshals each record into T, skipping ones that do not fit.
func DecodeRecords[T any](records []RawRecord, logger *slog.Logger) []T {
	out := make([]T, 0, len(records))
	for i, raw := range records {
		var v T
		if err := jsonAPI.Unmarshal(raw, &v); err != nil {
			logging.Warn(logger, "dropping undecodable record", "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
