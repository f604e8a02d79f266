package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
)

// record is the serialized form of one manipulation.
type record struct {
	Type         Kind            `json:"Type"`
	Manipulation json.RawMessage `json:"Manipulation"`
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindUnknown || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
	*k = parsed
	return nil
}

// MarshalJSON encodes the dictionary as a list of
// {"Type": kind, "Manipulation": {identifier fields..., "Entry": entry}}
// records in serialization order. GlobalEqp records carry no Entry.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	records := make([]record, 0, d.Count())
	for id, entry := range d.All() {
		m, err := encodeManipulation(id, entry)
		if err != nil {
			return nil, err
		}
		records = append(records, record{Type: id.Kind(), Manipulation: m})
	}
	return json.Marshal(records)
}

func encodeManipulation(id Identifier, entry any) (json.RawMessage, error) {
	fields, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", id, err)
	}
	if id.Kind() == KindGlobalEqp {
		return fields, nil
	}
	e, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode %s entry: %w", id, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(fields) + len(e) + 10)
	buf.Write(fields[:len(fields)-1])
	if len(fields) > 2 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"Entry":`)
	buf.Write(e)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the dictionary with the records in data. Malformed or
// invalid records are skipped; see Decode.
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data, nil)
	if err != nil {
		return err
	}
	d.SetTo(decoded)
	return nil
}

// Decode parses a manipulation list. A record with an unknown kind, fields
// that do not parse, an invalid identifier or entry, or a duplicate identifier
// is logged at Warn and skipped. Only input that is not a JSON array fails.
func Decode(data []byte, log *slog.Logger) (*Dictionary, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "meta"))
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode manipulations: %w", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("decode manipulations: %w: expected an array", ErrMalformed)
	}
	d := &Dictionary{}
	root.ForEach(func(key, rec gjson.Result) bool {
		id, entry, err := decodeRecord(rec)
		if err != nil {
			log.Warn("skipping manipulation", slog.Int64("index", key.Int()), slog.Any("error", err))
			return true
		}
		if !d.TryAdd(id, entry) {
			log.Warn("skipping duplicate manipulation", slog.Int64("index", key.Int()), slog.String("id", id.String()))
		}
		return true
	})
	return d, nil
}

func decodeRecord(rec gjson.Result) (Identifier, any, error) {
	kind, ok := ParseKind(rec.Get("Type").String())
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Get("Type").String())
	}
	m := rec.Get("Manipulation")
	if !m.IsObject() {
		return nil, nil, fmt.Errorf("%s: %w: missing manipulation", kind, ErrMalformed)
	}
	switch kind {
	case KindImc:
		return decodePair[ImcIdentifier, ImcEntry](m)
	case KindEqdp:
		return decodePair[EqdpIdentifier, EqdpEntry](m)
	case KindEqp:
		return decodePair[EqpIdentifier, EqpEntry](m)
	case KindEst:
		return decodePair[EstIdentifier, EstEntry](m)
	case KindGmp:
		return decodePair[GmpIdentifier, GmpEntry](m)
	case KindRsp:
		return decodePair[RspIdentifier, RspEntry](m)
	case KindGlobalEqp:
		var id GlobalEqpManipulation
		if err := json.Unmarshal([]byte(m.Raw), &id); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", kind, err)
		}
		if !id.Validate() {
			return nil, nil, fmt.Errorf("%s: %w", id, ErrInvalidIdentifier)
		}
		return id, struct{}{}, nil
	case KindAtch:
		return decodePair[AtchIdentifier, AtchEntry](m)
	case KindShp:
		return decodePair[ShpIdentifier, ShpEntry](m)
	case KindAtr:
		return decodePair[AtrIdentifier, AtrEntry](m)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// decodePair reads the identifier fields and the Entry of one manipulation.
func decodePair[K Identifier, V any](m gjson.Result) (Identifier, any, error) {
	var id K
	if err := json.Unmarshal([]byte(m.Raw), &id); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", id.Kind(), err)
	}
	if !id.Validate() {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrInvalidIdentifier)
	}
	raw := m.Get("Entry")
	if !raw.Exists() {
		return nil, nil, fmt.Errorf("%s: %w: missing entry", id, ErrInvalidEntry)
	}
	var entry V
	if err := json.Unmarshal([]byte(raw.Raw), &entry); err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %v", id, ErrInvalidEntry, err)
	}
	if !ValidEntry(id, entry) {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrInvalidEntry)
	}
	return id, entry, nil
}
