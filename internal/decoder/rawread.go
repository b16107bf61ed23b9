package decoder

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// The FIT epoch: seconds since 1989-12-31T00:00:00Z.
const fitEpochOffset = 631065600

// FIT base type identifiers (profile base_type enum).
const (
	baseEnum    = 0x00
	baseSint8   = 0x01
	baseUint8   = 0x02
	baseSint16  = 0x83
	baseUint16  = 0x84
	baseSint32  = 0x85
	baseUint32  = 0x86
	baseString  = 0x07
	baseFloat32 = 0x88
	baseFloat64 = 0x89
	baseUint8z  = 0x0A
	baseUint16z = 0x8B
	baseUint32z = 0x8C
	baseByte    = 0x0D
	baseSint64  = 0x8E
	baseUint64  = 0x8F
	baseUint64z = 0x90
)

type rawField struct {
	num   uint8
	value any
}

type rawMessage struct {
	global uint16
	fields []rawField
}

func (m rawMessage) field(num uint8) any {
	for _, f := range m.fields {
		if f.num == num {
			return f.value
		}
	}
	return nil
}

type fieldDef struct {
	num  uint8
	size int
	base byte
}

type msgDef struct {
	global    uint16
	bigEndian bool
	fields    []fieldDef
	devSize   int
}

// readRaw walks the FIT record stream and returns the data messages whose
// global number the caller wants. stopAfter, when >= 0, ends the walk after
// the first data message of that global number so the file-kind probe does
// not decode whole activity files. Truncated streams return what was read so
// far; only a malformed header is an error.
func readRaw(data []byte, want map[uint16]bool, stopAfter int) ([]rawMessage, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("file too short for FIT header (%d bytes)", len(data))
	}
	hdrSize := int(data[0])
	if hdrSize < 12 || hdrSize > len(data) {
		return nil, fmt.Errorf("invalid FIT header size %d", hdrSize)
	}
	if string(data[8:12]) != ".FIT" {
		return nil, fmt.Errorf("missing .FIT magic")
	}
	dataSize := int(binary.LittleEndian.Uint32(data[4:8]))
	end := hdrSize + dataSize
	if end > len(data) {
		// Truncated file: read as far as the bytes allow.
		end = len(data)
	}

	var msgs []rawMessage
	defs := make(map[byte]*msgDef)
	i := hdrSize
	for i < end {
		hdr := data[i]
		i++

		var local byte
		isDef := false
		hasDev := false
		if hdr&0x80 != 0 {
			// Compressed timestamp header; the time offset is ignored.
			local = (hdr >> 5) & 0x03
		} else {
			local = hdr & 0x0F
			isDef = hdr&0x40 != 0
			hasDev = hdr&0x20 != 0
		}

		if isDef {
			def, n, ok := parseDefinition(data[i:end], hasDev)
			if !ok {
				return msgs, nil
			}
			defs[local] = def
			i += n
			continue
		}

		def, ok := defs[local]
		if !ok {
			// Data message without a definition; the stream is unusable
			// from here on.
			return msgs, nil
		}
		msg, n, ok := parseData(data[i:end], def)
		if !ok {
			return msgs, nil
		}
		i += n
		if want == nil || want[def.global] {
			msgs = append(msgs, msg)
		}
		if stopAfter >= 0 && int(def.global) == stopAfter {
			return msgs, nil
		}
	}
	return msgs, nil
}

func parseDefinition(b []byte, hasDev bool) (*msgDef, int, bool) {
	if len(b) < 5 {
		return nil, 0, false
	}
	def := &msgDef{bigEndian: b[1] == 1}
	if def.bigEndian {
		def.global = binary.BigEndian.Uint16(b[2:4])
	} else {
		def.global = binary.LittleEndian.Uint16(b[2:4])
	}
	nFields := int(b[4])
	i := 5
	if len(b) < i+nFields*3 {
		return nil, 0, false
	}
	for f := 0; f < nFields; f++ {
		def.fields = append(def.fields, fieldDef{
			num:  b[i],
			size: int(b[i+1]),
			base: b[i+2],
		})
		i += 3
	}
	if hasDev {
		if len(b) <= i {
			return nil, 0, false
		}
		nDev := int(b[i])
		i++
		if len(b) < i+nDev*3 {
			return nil, 0, false
		}
		for f := 0; f < nDev; f++ {
			def.devSize += int(b[i+1])
			i += 3
		}
	}
	return def, i, true
}

func parseData(b []byte, def *msgDef) (rawMessage, int, bool) {
	msg := rawMessage{global: def.global}
	i := 0
	for _, fd := range def.fields {
		if len(b) < i+fd.size {
			return msg, 0, false
		}
		if v := decodeValue(b[i:i+fd.size], fd.base, def.bigEndian); v != nil {
			msg.fields = append(msg.fields, rawField{num: fd.num, value: v})
		}
		i += fd.size
	}
	if len(b) < i+def.devSize {
		return msg, 0, false
	}
	i += def.devSize
	return msg, i, true
}

// decodeValue decodes a single field payload, returning nil for the base
// type's invalid sentinel and for multi-element numeric arrays (none of the
// messages this reader serves carry them).
func decodeValue(b []byte, base byte, bigEndian bool) any {
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}

	if base == baseString {
		end := 0
		for end < len(b) && b[end] != 0 {
			end++
		}
		if end == 0 {
			return nil
		}
		return string(b[:end])
	}

	elem := baseTypeSize(base)
	if elem == 0 || len(b) != elem {
		return nil
	}

	switch base {
	case baseEnum, baseUint8:
		if b[0] == 0xFF {
			return nil
		}
		return b[0]
	case baseUint8z:
		if b[0] == 0 {
			return nil
		}
		return b[0]
	case baseByte:
		if b[0] == 0xFF {
			return nil
		}
		return b[0]
	case baseSint8:
		v := int8(b[0])
		if v == 0x7F {
			return nil
		}
		return v
	case baseSint16:
		v := int16(order.Uint16(b))
		if v == 0x7FFF {
			return nil
		}
		return v
	case baseUint16:
		v := order.Uint16(b)
		if v == 0xFFFF {
			return nil
		}
		return v
	case baseUint16z:
		v := order.Uint16(b)
		if v == 0 {
			return nil
		}
		return v
	case baseSint32:
		v := int32(order.Uint32(b))
		if v == 0x7FFFFFFF {
			return nil
		}
		return v
	case baseUint32:
		v := order.Uint32(b)
		if v == 0xFFFFFFFF {
			return nil
		}
		return v
	case baseUint32z:
		v := order.Uint32(b)
		if v == 0 {
			return nil
		}
		return v
	case baseFloat32:
		bits := order.Uint32(b)
		if bits == 0xFFFFFFFF {
			return nil
		}
		return math.Float32frombits(bits)
	case baseFloat64:
		bits := order.Uint64(b)
		if bits == 0xFFFFFFFFFFFFFFFF {
			return nil
		}
		return math.Float64frombits(bits)
	case baseSint64:
		v := int64(order.Uint64(b))
		if v == 0x7FFFFFFFFFFFFFFF {
			return nil
		}
		return v
	case baseUint64:
		v := order.Uint64(b)
		if v == 0xFFFFFFFFFFFFFFFF {
			return nil
		}
		return v
	case baseUint64z:
		v := order.Uint64(b)
		if v == 0 {
			return nil
		}
		return v
	}
	return nil
}

func baseTypeSize(base byte) int {
	switch base {
	case baseEnum, baseSint8, baseUint8, baseUint8z, baseByte:
		return 1
	case baseSint16, baseUint16, baseUint16z:
		return 2
	case baseSint32, baseUint32, baseUint32z, baseFloat32:
		return 4
	case baseFloat64, baseSint64, baseUint64, baseUint64z:
		return 8
	}
	return 0
}

// fitTime converts a raw FIT timestamp (seconds since the FIT epoch) to UTC.
func fitTime(v any) *time.Time {
	var secs uint32
	switch x := v.(type) {
	case uint32:
		secs = x
	default:
		return nil
	}
	t := time.Unix(fitEpochOffset+int64(secs), 0).UTC()
	return &t
}
