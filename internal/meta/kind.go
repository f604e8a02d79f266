// Package meta models manipulations: typed patches to the client's shared
// binary configuration tables, and the per-collection dictionary that holds
// every active manipulation of every kind.
package meta

import (
	"errors"
	"strconv"
	"strings"
)

// Kind names a manipulation family. Each kind patches one table shape.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindImc
	KindEqdp
	KindEqp
	KindEst
	KindGmp
	KindRsp
	KindGlobalEqp
	KindAtch
	KindShp
	KindAtr
)

var kindNames = [...]string{
	KindUnknown:   "Unknown",
	KindImc:       "Imc",
	KindEqdp:      "Eqdp",
	KindEqp:       "Eqp",
	KindEst:       "Est",
	KindGmp:       "Gmp",
	KindRsp:       "Rsp",
	KindGlobalEqp: "GlobalEqp",
	KindAtch:      "Atch",
	KindShp:       "Shp",
	KindAtr:       "Atr",
}

// Kinds lists every manipulation kind in serialization order.
var Kinds = []Kind{KindImc, KindEqdp, KindEqp, KindEst, KindGmp, KindRsp, KindGlobalEqp, KindAtch, KindShp, KindAtr}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if i > 0 && strings.EqualFold(n, name) {
			return Kind(i), true
		}
	}
	return KindUnknown, false
}

// Manipulation errors.
var (
	ErrInvalidIdentifier = errors.New("invalid manipulation identifier")
	ErrInvalidEntry      = errors.New("invalid manipulation entry")
	ErrUnknownKind       = errors.New("unknown manipulation kind")
	ErrMalformed         = errors.New("malformed manipulation data")
)

// Identifier is implemented by the identifier type of every kind. Identifiers
// are small comparable values; each also has a Compare method against its own
// type that defines the serialization order.
type Identifier interface {
	Kind() Kind
	// Validate reports whether the identifier is legal for its table.
	Validate() bool
	String() string
}

// ordered is satisfied by identifier types with a total order.
type ordered[K any] interface {
	comparable
	Compare(K) int
}
