package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the persisted type tag of a row.
type Type int

// Row type tags. Values are stored in the type column.
const (
	TypeInt Type = iota
	TypeFloat
	TypeStr
	TypeBool
	TypeNull
	TypeList
	TypeDict
	TypeKey
)

// Reserved row ids.
const (
	// RootID is the id of the document root row.
	RootID int64 = -1

	// RootParent is the parent id of the root row. No row has this id.
	RootParent int64 = -2
)

// DefaultLinkKey is the dict key that declares a link instead of a literal entry.
const DefaultLinkKey = "@__link__"

var typeNames = map[Type]string{
	TypeInt:   "INT",
	TypeFloat: "FLOAT",
	TypeStr:   "STR",
	TypeBool:  "BOOL",
	TypeNull:  "NULL",
	TypeList:  "LIST",
	TypeDict:  "DICT",
	TypeKey:   "KEY",
}

// String returns the upper-case tag name, e.g. "DICT".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType converts a tag name (case-insensitive) back to a Type.
func ParseType(name string) (Type, error) {
	upper := strings.ToUpper(name)
	for t, n := range typeNames {
		if n == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type tag %q", ErrUnsupportedType, name)
}

// IsContainer reports whether rows of this type own a cached child count.
func (t Type) IsContainer() bool {
	return t == TypeList || t == TypeDict
}

// IsScalar reports whether rows of this type hold a leaf value.
func (t Type) IsScalar() bool {
	switch t {
	case TypeInt, TypeFloat, TypeStr, TypeBool, TypeNull:
		return true
	}
	return false
}

// Row is one persisted tree node.
//
// For List and Dict rows Value is the cached direct-child count (int64).
// For Key rows Value is the key name. Link is empty when the row has no link.
type Row struct {
	ID     int64  `json:"id"`
	Parent int64  `json:"parent"`
	Type   Type   `json:"type"`
	Value  any    `json:"value"`
	Link   string `json:"link,omitempty"`
}

// HasLink reports whether the row resolves through a stored path.
func (r Row) HasLink() bool {
	return r.Link != ""
}

// Count returns the cached child count of a container row.
func (r Row) Count() int64 {
	n, _ := r.Value.(int64)
	return n
}

// Ref identifies a row together with its type tag.
// The query executor carries frontiers of refs.
type Ref struct {
	ID   int64
	Type Type
}

// EncodeIDs renders ids as a JSON array for SQLite's json_each, which is how
// id sets are bound as a single query parameter.
func EncodeIDs(ids []int64) string {
	buf := make([]byte, 0, len(ids)*4+2)
	buf = append(buf, '[')
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, id, 10)
	}
	buf = append(buf, ']')
	return string(buf)
}
