// Package exports renders audit records as downloadable files.
package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"milkfactory/integrations/audit"
)

const (
	FormatCSV     = "csv"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// Formats lists every supported export format.
var Formats = []string{FormatCSV, FormatJSONL, FormatParquet}

// ContentType returns the media type served for format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSONL:
		return "application/x-ndjson"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// Render dispatches on format.
func Render(format string, records []audit.Record) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSONL:
		return RecordsJSONL(records)
	case FormatCSV:
		return RecordsCSV(records)
	case FormatParquet:
		return RecordsParquet(records)
	default:
		return nil, "", fmt.Errorf("exports: unsupported format %q", format)
	}
}

// RecordsCSV builds a CSV export of records and returns the serialised data
// alongside a SHA-256 checksum of the payload. Attributes are flattened into
// a single key=value column sorted by key.
func RecordsCSV(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := []string{"sequence", "id", "type", "created_at", "attributes"}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, record := range records {
		attrs, err := record.Decode()
		if err != nil {
			return nil, "", err
		}
		row := []string{
			strconv.FormatUint(record.Sequence, 10),
			record.ID.String(),
			record.Type,
			record.CreatedAt.UTC().Format(time.RFC3339Nano),
			flatten(attrs),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return checksummed(buffer.Bytes())
}

// RecordsJSONL builds a JSON Lines export of records.
func RecordsJSONL(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		attrs, err := record.Decode()
		if err != nil {
			return nil, "", err
		}
		line := map[string]interface{}{
			"sequence":   record.Sequence,
			"id":         record.ID.String(),
			"type":       record.Type,
			"created_at": record.CreatedAt.UTC().Format(time.RFC3339Nano),
			"attributes": attrs,
		}
		if err := encoder.Encode(line); err != nil {
			return nil, "", err
		}
	}
	return checksummed(buffer.Bytes())
}

func flatten(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, ";")
}

func checksummed(data []byte) ([]byte, string, error) {
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}
