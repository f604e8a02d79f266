package resolvectx

import (
	"fmt"
	"hash/crc32"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Blurb grammar: "|" index "_" counter ["_" crc32] "_" discriminator "|" path.
const (
	blurbDelimiter = '|'
	fieldSeparator = "_"
	discLength     = 4
	crcLength      = 8
)

// Blurb is the data a virtual path carries.
type Blurb struct {
	// Collection is the local index of the collection.
	Collection int
	// ChangeCounter is the collection's change counter when the path was
	// built, used to detect stale paths.
	ChangeCounter uint64
	// PathCRC is the CRC-32 of the original path. Only material paths
	// carry it.
	PathCRC uint32
	HasCRC  bool
}

// Codec encodes and parses blurbs for one process run. The discriminator
// mixes a per-run salt with a checksum of the blurb fields, so blurbs of a
// previous run and blurbs with any single corrupted character parse as
// absent.
type Codec struct {
	salt uint16
}

// NewCodec returns a codec with a random per-run salt.
func NewCodec() *Codec {
	return &Codec{salt: uint16(rand.Uint32())}
}

// NewCodecWithSalt returns a codec with a fixed salt.
func NewCodecWithSalt(salt uint16) *Codec {
	return &Codec{salt: salt}
}

// Encode prefixes path with the blurb of b. The path CRC is computed from
// path when b.HasCRC is set.
func (c *Codec) Encode(b Blurb, path string) string {
	fields := strconv.Itoa(b.Collection) + fieldSeparator + strconv.FormatUint(b.ChangeCounter, 10)
	if b.HasCRC {
		fields += fieldSeparator + fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(path)))
	}
	var sb strings.Builder
	sb.Grow(len(fields) + len(path) + discLength + 3)
	sb.WriteByte(blurbDelimiter)
	sb.WriteString(fields)
	sb.WriteString(fieldSeparator)
	fmt.Fprintf(&sb, "%04x", c.discriminator(fields))
	sb.WriteByte(blurbDelimiter)
	sb.WriteString(path)
	return sb.String()
}

// Parse splits a virtual path into its blurb and the original path. Any
// deviation from the grammar, a discriminator of another run or a path that
// does not match its CRC reports no blurb and returns full unchanged.
func (c *Codec) Parse(full string) (Blurb, string, bool) {
	if len(full) < 2 || full[0] != blurbDelimiter {
		return Blurb{}, full, false
	}
	end := strings.IndexByte(full[1:], blurbDelimiter)
	if end < 0 {
		return Blurb{}, full, false
	}
	inner, path := full[1:1+end], full[2+end:]

	cut := strings.LastIndex(inner, fieldSeparator)
	if cut < 0 || len(inner)-cut-1 != discLength {
		return Blurb{}, full, false
	}
	fields, disc := inner[:cut], inner[cut+1:]
	d, ok := parseHex(disc)
	if !ok || uint16(d) != c.discriminator(fields) {
		return Blurb{}, full, false
	}

	parts := strings.Split(fields, fieldSeparator)
	var b Blurb
	switch len(parts) {
	case 2:
	case 3:
		if len(parts[2]) != crcLength {
			return Blurb{}, full, false
		}
		v, ok := parseHex(parts[2])
		if !ok || uint32(v) != crc32.ChecksumIEEE([]byte(path)) {
			return Blurb{}, full, false
		}
		b.PathCRC, b.HasCRC = uint32(v), true
	default:
		return Blurb{}, full, false
	}
	idx, ok := parseDecimal(parts[0])
	if !ok || idx > uint64(^uint(0)>>1) {
		return Blurb{}, full, false
	}
	counter, ok := parseDecimal(parts[1])
	if !ok {
		return Blurb{}, full, false
	}
	b.Collection, b.ChangeCounter = int(idx), counter
	return b, path, true
}

func (c *Codec) discriminator(fields string) uint16 {
	return c.salt ^ crc16([]byte(fields))
}

// parseDecimal accepts unsigned decimal digits only.
func parseDecimal(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// parseHex accepts lower-case hex digits only, the form Encode writes.
func parseHex(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && (s[i] < 'a' || s[i] > 'f') {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// crc16 is CRC-16/CCITT-FALSE (polynomial 0x1021, initial value 0xFFFF). It
// detects every error burst of up to 16 bits, so every single changed byte.
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
