package decoder

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fit-import/internal/fitmsg"
)

// buildFIT assembles a minimal FIT file around the given record bytes: a
// 14-byte header with magic and data size, records, and a trailing CRC that
// the reader ignores.
func buildFIT(records []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(14)   // header size
	buf.WriteByte(0x10) // protocol version
	binary.Write(&buf, binary.LittleEndian, uint16(2195)) // profile version
	binary.Write(&buf, binary.LittleEndian, uint32(len(records)))
	buf.WriteString(".FIT")
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // header CRC, unchecked
	buf.Write(records)
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // file CRC, unchecked
	return buf.Bytes()
}

// fileIDRecords is a file_id definition plus one data message with the given
// type value and a time_created of 2024-06-01T08:00:00Z.
func fileIDRecords(fileType byte) []byte {
	var buf bytes.Buffer
	// Definition, local type 0: fields type(enum) and time_created(uint32).
	buf.Write([]byte{0x40, 0, 0, 0, 0, 2,
		0, 1, 0x00,
		4, 4, 0x86,
	})
	// Data message.
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC).Unix() - fitEpochOffset
	buf.WriteByte(0x00)
	buf.WriteByte(fileType)
	binary.Write(&buf, binary.LittleEndian, uint32(created))
	return buf.Bytes()
}

func locationRecords(name string, latDeg, lonDeg float64, symbol, altCode uint16) []byte {
	var buf bytes.Buffer
	// Definition, local type 1, global 29.
	buf.Write([]byte{0x41, 0, 0, 29, 0, 5,
		0, 16, 0x07,
		1, 4, 0x85,
		2, 4, 0x85,
		3, 2, 0x84,
		4, 2, 0x84,
	})
	buf.WriteByte(0x01)
	padded := make([]byte, 16)
	copy(padded, name)
	buf.Write(padded)
	binary.Write(&buf, binary.LittleEndian, int32(latDeg*float64(int64(1)<<31)/180))
	binary.Write(&buf, binary.LittleEndian, int32(lonDeg*float64(int64(1)<<31)/180))
	binary.Write(&buf, binary.LittleEndian, symbol)
	binary.Write(&buf, binary.LittleEndian, altCode)
	return buf.Bytes()
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fit")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestOpenLocationsFile(t *testing.T) {
	records := append(fileIDRecords(fileTypeLocations), locationRecords("Summit", 46.5, 9.5, 71, 15000)...)
	path := writeFile(t, buildFIT(records))

	src, kind, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if kind != KindLocations {
		t.Fatalf("kind = %v, want locations", kind)
	}

	locs := src.Messages(fitmsg.KindLocation)
	if len(locs) != 1 {
		t.Fatalf("got %d location messages, want 1", len(locs))
	}
	if got := fitmsg.String(locs[0].Value("name")); got == nil || *got != "Summit" {
		t.Errorf("name = %v, want Summit", got)
	}
	lat := fitmsg.Float(locs[0].Value("position_lat"))
	if lat == nil || *lat < 5.5e8 || *lat > 5.6e8 {
		t.Errorf("position_lat = %v, want raw semicircles near 5.546e8", lat)
	}
	if got := fitmsg.Int(locs[0].Value("symbol")); got == nil || *got != 71 {
		t.Errorf("symbol = %v, want 71", got)
	}
	if got := fitmsg.Int(locs[0].Value("altitude")); got == nil || *got != 15000 {
		t.Errorf("altitude = %v, want raw code 15000", got)
	}

	ids := src.Messages(fitmsg.KindFileID)
	if len(ids) != 1 {
		t.Fatalf("got %d file_id messages, want 1", len(ids))
	}
	created := fitmsg.Time(ids[0].Value("time_created"))
	want := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if created == nil || !created.Equal(want) {
		t.Errorf("time_created = %v, want %v", created, want)
	}
}

func TestOpenUnsupportedFileType(t *testing.T) {
	path := writeFile(t, buildFIT(fileIDRecords(5))) // workout file
	src, kind, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if kind != KindUnsupported {
		t.Errorf("kind = %v, want unsupported", kind)
	}
	if src != nil {
		t.Error("source should be nil for unsupported files")
	}
}

func TestOpenRejectsNonFIT(t *testing.T) {
	path := writeFile(t, []byte("definitely not a FIT file"))
	if _, _, err := Open(path); err == nil {
		t.Fatal("want error for missing magic")
	}
}

func TestProbeStopsAtFirstFileID(t *testing.T) {
	// A second file_id with a different type must not be reached.
	records := append(fileIDRecords(fileTypeLocations), fileIDRecords(fileTypeActivity)...)
	fileType, err := probeFileType(buildFIT(records))
	if err != nil {
		t.Fatalf("probeFileType: %v", err)
	}
	if fileType != fileTypeLocations {
		t.Errorf("fileType = %d, want %d from the first file_id", fileType, fileTypeLocations)
	}
}

func TestReadRawToleratesTruncation(t *testing.T) {
	records := append(fileIDRecords(fileTypeLocations), locationRecords("Summit", 46.5, 9.5, 71, 15000)...)
	data := buildFIT(records)
	truncated := data[:len(data)-10]

	msgs, err := readRaw(truncated, map[uint16]bool{globalFileID: true, globalLocations: true}, -1)
	if err != nil {
		t.Fatalf("readRaw: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("got %d messages, want the intact file_id only", len(msgs))
	}
}

func TestInvalidSentinelsDropped(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x41, 0, 0, 29, 0, 3,
		1, 4, 0x85,
		3, 2, 0x84,
		253, 4, 0x86,
	})
	buf.WriteByte(0x01)
	binary.Write(&buf, binary.LittleEndian, int32(0x7FFFFFFF)) // invalid sint32
	binary.Write(&buf, binary.LittleEndian, uint16(71))
	binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFFF)) // invalid uint32
	records := append(fileIDRecords(fileTypeLocations), buf.Bytes()...)
	path := writeFile(t, buildFIT(records))

	src, _, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	loc := src.Messages(fitmsg.KindLocation)[0]
	if loc.Value("position_lat") != nil {
		t.Error("invalid latitude sentinel not dropped")
	}
	if loc.Value("timestamp") != nil {
		t.Error("invalid timestamp sentinel not dropped")
	}
	if got := fitmsg.Int(loc.Value("symbol")); got == nil || *got != 71 {
		t.Errorf("symbol = %v, want 71", got)
	}
}
