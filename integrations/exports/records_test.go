package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"milkfactory/integrations/audit"
)

func sampleRecord(seq uint64) audit.Record {
	return audit.Record{
		ID:         uuid.MustParse("6f1c2a7e-8a45-4b3f-9d2b-0c1d2e3f4a5b"),
		Sequence:   seq,
		Type:       "itemfactory.daily_claim",
		Attributes: `{"petId":"7","rarity":"EPIC","type":"MILK"}`,
		CreatedAt:  time.Unix(1700, 0).UTC(),
	}
}

func TestRecordsCSV(t *testing.T) {
	data, checksum, err := RecordsCSV([]audit.Record{sampleRecord(3)})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	output := string(data)
	if !strings.HasPrefix(output, "sequence,id,type,created_at,attributes\n") {
		t.Fatalf("missing header: %s", output)
	}
	if !strings.Contains(output, "petId=7;rarity=EPIC;type=MILK") {
		t.Fatalf("attributes not flattened in key order: %s", output)
	}
	sum := sha256.Sum256(data)
	if checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum mismatch")
	}
}

func TestRecordsJSONL(t *testing.T) {
	data, checksum, err := RecordsJSONL([]audit.Record{sampleRecord(1), sampleRecord(2)})
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	if checksum == "" {
		t.Fatalf("expected checksum")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"sequence":2`) || !strings.Contains(lines[1], `"rarity":"EPIC"`) {
		t.Fatalf("unexpected line: %s", lines[1])
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, _, err := Render("parquet", nil); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	data, _, err := Render("", nil)
	if err != nil || len(data) != 0 {
		t.Fatalf("empty jsonl export: %q %v", data, err)
	}
}

func TestRecordsRejectCorruptAttributes(t *testing.T) {
	record := sampleRecord(1)
	record.Attributes = "{"
	if _, _, err := RecordsCSV([]audit.Record{record}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRecordsParquet(t *testing.T) {
	data, checksum, err := RecordsParquet([]audit.Record{sampleRecord(1), sampleRecord(2)})
	if err != nil {
		t.Fatalf("parquet: %v", err)
	}
	if checksum == "" {
		t.Fatalf("expected checksum")
	}
	if len(data) < 8 || string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Fatalf("output is not framed as parquet")
	}

	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(parquetRow), 1)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer pr.ReadStop()
	if pr.GetNumRows() != 2 {
		t.Fatalf("rows = %d, want 2", pr.GetNumRows())
	}
	rows := make([]parquetRow, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if rows[1].Sequence != 2 || rows[0].Type != "itemfactory.daily_claim" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[0].Attributes != `{"petId":"7","rarity":"EPIC","type":"MILK"}` {
		t.Fatalf("attributes = %q", rows[0].Attributes)
	}
}
