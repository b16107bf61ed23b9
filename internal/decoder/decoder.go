// Package decoder turns binary FIT files into the fitmsg message stream the
// import pipeline consumes. Activity files are decoded with
// github.com/tormoder/fit; the undocumented locations message (global 29)
// is not part of the published FIT profile, so a compact record-stream
// reader in this package handles the locations path and the cheap file-kind
// probe.
package decoder

import (
	"fmt"
	"os"

	"fit-import/internal/fitmsg"
)

// Kind is the detected file kind from the file_id type field.
type Kind int

const (
	KindUnsupported Kind = iota
	KindActivity
	KindLocations
)

func (k Kind) String() string {
	switch k {
	case KindActivity:
		return "activity"
	case KindLocations:
		return "locations"
	}
	return "unsupported"
}

// file_id type values. 4 is the published activity marker; 8 is the
// undocumented locations file Garmin handhelds produce.
const (
	fileTypeActivity  = 4
	fileTypeLocations = 8
)

// FIT global message numbers this package reads directly.
const (
	globalFileID    = 0
	globalLocations = 29
)

// memorySource is a fully materialized message stream.
type memorySource struct {
	msgs map[string][]fitmsg.Message
}

func (s *memorySource) Messages(kind string) []fitmsg.Message {
	return s.msgs[kind]
}

// Open reads one FIT file and returns its message stream and detected kind.
// For an unsupported kind the source is nil and the error is nil; the caller
// owns the unsupported-file alert.
func Open(path string) (fitmsg.Source, Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, KindUnsupported, fmt.Errorf("failed to read file: %w", err)
	}

	fileType, err := probeFileType(data)
	if err != nil {
		return nil, KindUnsupported, err
	}

	switch fileType {
	case fileTypeLocations:
		src, err := locationSource(data)
		if err != nil {
			return nil, KindLocations, err
		}
		return src, KindLocations, nil
	case fileTypeActivity:
		src, err := activitySource(data)
		if err != nil {
			return nil, KindActivity, err
		}
		return src, KindActivity, nil
	}
	return nil, KindUnsupported, nil
}

// probeFileType reads records up to the first file_id data message and
// returns its type field. Files with no decodable file_id report -1.
func probeFileType(data []byte) (int, error) {
	msgs, err := readRaw(data, map[uint16]bool{globalFileID: true}, globalFileID)
	if err != nil {
		return -1, fmt.Errorf("failed to probe file kind: %w", err)
	}
	for _, m := range msgs {
		if v, ok := m.field(0).(uint8); ok {
			return int(v), nil
		}
	}
	return -1, nil
}

// locationSource decodes a locations file into file_id and location
// messages. Location message fields (by field number): 0 name, 1 latitude
// and 2 longitude in semicircles, 3 symbol code, 4 altitude code, 5 and 6
// unknown, 253 timestamp, 254 message index.
func locationSource(data []byte) (*memorySource, error) {
	raw, err := readRaw(data, map[uint16]bool{globalFileID: true, globalLocations: true}, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to decode locations file: %w", err)
	}

	msgs := make(map[string][]fitmsg.Message)
	for _, m := range raw {
		switch m.global {
		case globalFileID:
			msgs[fitmsg.KindFileID] = append(msgs[fitmsg.KindFileID], fileIDMessage(m))
		case globalLocations:
			var b builder
			b.add("name", m.field(0))
			b.add("position_lat", m.field(1))
			b.add("position_long", m.field(2))
			b.add("symbol", m.field(3))
			b.add("altitude", m.field(4))
			if ts := fitTime(m.field(253)); ts != nil {
				b.add("timestamp", *ts)
			}
			b.add("message_index", m.field(254))
			msgs[fitmsg.KindLocation] = append(msgs[fitmsg.KindLocation], b.message())
		}
	}
	return &memorySource{msgs: msgs}, nil
}

func fileIDMessage(m rawMessage) fitmsg.Message {
	var b builder
	b.add("type", m.field(0))
	b.add("manufacturer", m.field(1))
	b.add("garmin_product", m.field(2))
	if ts := fitTime(m.field(4)); ts != nil {
		b.add("time_created", *ts)
	}
	b.add("product_name", m.field(8))
	return b.message()
}

// builder accumulates fields, dropping nil values so that decode misses are
// simply absent.
type builder struct {
	fields []fitmsg.Field
}

func (b *builder) add(name string, v any) {
	if v == nil {
		return
	}
	b.fields = append(b.fields, fitmsg.Field{Name: name, Value: v})
}

func (b *builder) message() fitmsg.Message {
	return fitmsg.Message{Fields: b.fields}
}
