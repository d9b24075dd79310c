package wurm

import "github.com/roach88/wurm/internal/ormerr"

// Error is the error type of every wurm failure.
type Error = ormerr.Error

// Code categorizes errors.
type Code = ormerr.Code

// Error codes.
const (
	CodeSessionNotBound       = ormerr.CodeSessionNotBound
	CodeUnknownField          = ormerr.CodeUnknownField
	CodeEmptyResult           = ormerr.CodeEmptyResult
	CodeAmbiguousResult       = ormerr.CodeAmbiguousResult
	CodeDuplicateKey          = ormerr.CodeDuplicateKey
	CodeAbstractInstantiation = ormerr.CodeAbstractInstantiation
	CodeInvalidSubclass       = ormerr.CodeInvalidSubclass
	CodeNoMatchingField       = ormerr.CodeNoMatchingField
	CodeAmbiguousRelation     = ormerr.CodeAmbiguousRelation
	CodeWrongRelationType     = ormerr.CodeWrongRelationType
	CodeInvalidRelationTarget = ormerr.CodeInvalidRelationTarget
	CodeNotPersisted          = ormerr.CodeNotPersisted
	CodeDuplicateType         = ormerr.CodeDuplicateType
	CodeUnknownType           = ormerr.CodeUnknownType
	CodeInvalidPrimaryKey     = ormerr.CodeInvalidPrimaryKey
	CodeStorage               = ormerr.CodeStorage
)

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrSessionNotBound       = ormerr.ErrSessionNotBound
	ErrUnknownField          = ormerr.ErrUnknownField
	ErrEmptyResult           = ormerr.ErrEmptyResult
	ErrAmbiguousResult       = ormerr.ErrAmbiguousResult
	ErrDuplicateKey          = ormerr.ErrDuplicateKey
	ErrAbstractInstantiation = ormerr.ErrAbstractInstantiation
	ErrInvalidSubclass       = ormerr.ErrInvalidSubclass
	ErrNoMatchingField       = ormerr.ErrNoMatchingField
	ErrAmbiguousRelation     = ormerr.ErrAmbiguousRelation
	ErrWrongRelationType     = ormerr.ErrWrongRelationType
	ErrInvalidRelationTarget = ormerr.ErrInvalidRelationTarget
	ErrNotPersisted          = ormerr.ErrNotPersisted
	ErrDuplicateType         = ormerr.ErrDuplicateType
	ErrUnknownType           = ormerr.ErrUnknownType
	ErrInvalidPrimaryKey     = ormerr.ErrInvalidPrimaryKey
	ErrStorage               = ormerr.ErrStorage
)

// HasCode reports whether err is or wraps an *Error with code.
func HasCode(err error, code Code) bool {
	return ormerr.HasCode(err, code)
}
