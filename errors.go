package jsondb

import (
	"github.com/roach88/jsondb/internal/engine"
	"github.com/roach88/jsondb/internal/ir"
)

// Errors returned by DB and Node operations. Match them with errors.Is.
var (
	ErrSyntax               = ir.ErrSyntax
	ErrUnsupportedType      = ir.ErrUnsupportedType
	ErrIllegalStructure     = ir.ErrIllegalStructure
	ErrUnsupportedOperation = ir.ErrUnsupportedOperation
	ErrIndex                = ir.ErrIndex
	ErrNotFound             = ir.ErrNotFound
	ErrLinkCycle            = ir.ErrLinkCycle
	ErrDivisionByZero       = ir.ErrDivisionByZero
)

// LinkError describes a link that could not be resolved.
type LinkError = engine.LinkError

// Row is one stored row: a scalar, a container or a dict key.
type Row = ir.Row

// Type is the stored type tag of a row.
type Type = ir.Type

const (
	TypeInt   = ir.TypeInt
	TypeFloat = ir.TypeFloat
	TypeStr   = ir.TypeStr
	TypeBool  = ir.TypeBool
	TypeNull  = ir.TypeNull
	TypeList  = ir.TypeList
	TypeDict  = ir.TypeDict
	TypeKey   = ir.TypeKey
)

// DefaultLinkKey is the dict key that declares a link.
const DefaultLinkKey = ir.DefaultLinkKey
