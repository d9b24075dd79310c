// Package ormerr defines the error taxonomy shared by every wurm package.
//
// All failures that reach a caller are either an *Error or wrap one, so a
// single errors.Is / errors.As check identifies the failure kind regardless
// of which layer produced it. Storage driver failures are translated into
// *Error exactly once, where statements are executed, and keep the driver
// error reachable through Unwrap.
package ormerr

import (
	"errors"
	"fmt"
)

// Code categorizes errors.
type Code string

const (
	// CodeSessionNotBound indicates no store is bound to the context.
	CodeSessionNotBound Code = "SESSION_NOT_BOUND"

	// CodeUnknownField indicates a query referenced a field the record type does not have.
	CodeUnknownField Code = "UNKNOWN_FIELD"

	// CodeEmptyResult indicates First or One matched no rows.
	CodeEmptyResult Code = "EMPTY_RESULT"

	// CodeAmbiguousResult indicates One matched more than one row.
	CodeAmbiguousResult Code = "AMBIGUOUS_RESULT"

	// CodeDuplicateKey indicates an insert violated a primary key or unique constraint.
	CodeDuplicateKey Code = "DUPLICATE_KEY"

	// CodeAbstractInstantiation indicates an abstract record type was registered or stored.
	CodeAbstractInstantiation Code = "ABSTRACT_INSTANTIATION"

	// CodeInvalidSubclass indicates a record type embeds a concrete record type.
	CodeInvalidSubclass Code = "INVALID_SUBCLASS"

	// CodeNoMatchingField indicates a relation target has no field of the owner type.
	CodeNoMatchingField Code = "NO_MATCHING_FIELD"

	// CodeAmbiguousRelation indicates a relation target has several fields of the owner type.
	CodeAmbiguousRelation Code = "AMBIGUOUS_RELATION"

	// CodeWrongRelationType indicates an explicitly named relation field has another type.
	CodeWrongRelationType Code = "WRONG_RELATION_TYPE"

	// CodeInvalidRelationTarget indicates a relation target path does not name a record type.
	CodeInvalidRelationTarget Code = "INVALID_RELATION_TARGET"

	// CodeNotPersisted indicates an instance has no assigned primary key.
	CodeNotPersisted Code = "NOT_PERSISTED"

	// CodeDuplicateType indicates a Go type was registered twice with the type registry.
	CodeDuplicateType Code = "DUPLICATE_TYPE"

	// CodeUnknownType indicates a Go type has no registered column mapping.
	CodeUnknownType Code = "UNKNOWN_TYPE"

	// CodeInvalidPrimaryKey indicates a record type's primary key declaration is unusable.
	CodeInvalidPrimaryKey Code = "INVALID_PRIMARY_KEY"

	// CodeStorage indicates any other failure reported by the storage engine.
	CodeStorage Code = "STORAGE"
)

// Error is the error type returned by wurm operations.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Table names the affected record type, if any.
	Table string

	// Field names the affected field, if any.
	Field string

	// Err is the underlying cause (typically a driver error).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
// This lets the sentinels below be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks. Only the Code is compared.
var (
	ErrSessionNotBound       = &Error{Code: CodeSessionNotBound, Message: "no store bound to context"}
	ErrUnknownField          = &Error{Code: CodeUnknownField, Message: "unknown field"}
	ErrEmptyResult           = &Error{Code: CodeEmptyResult, Message: "no rows returned"}
	ErrAmbiguousResult       = &Error{Code: CodeAmbiguousResult, Message: "more than one row returned"}
	ErrDuplicateKey          = &Error{Code: CodeDuplicateKey, Message: "duplicate key"}
	ErrAbstractInstantiation = &Error{Code: CodeAbstractInstantiation, Message: "abstract record type"}
	ErrInvalidSubclass       = &Error{Code: CodeInvalidSubclass, Message: "invalid subclass"}
	ErrNoMatchingField       = &Error{Code: CodeNoMatchingField, Message: "no matching field"}
	ErrAmbiguousRelation     = &Error{Code: CodeAmbiguousRelation, Message: "ambiguous relation"}
	ErrWrongRelationType     = &Error{Code: CodeWrongRelationType, Message: "wrong relation type"}
	ErrInvalidRelationTarget = &Error{Code: CodeInvalidRelationTarget, Message: "invalid relation target"}
	ErrNotPersisted          = &Error{Code: CodeNotPersisted, Message: "not persisted"}
	ErrDuplicateType         = &Error{Code: CodeDuplicateType, Message: "duplicate type"}
	ErrUnknownType           = &Error{Code: CodeUnknownType, Message: "unknown type"}
	ErrInvalidPrimaryKey     = &Error{Code: CodeInvalidPrimaryKey, Message: "invalid primary key"}
	ErrStorage               = &Error{Code: CodeStorage, Message: "storage failure"}
)

// New creates an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around a cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithTable returns e with Table set.
func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

// WithField returns e with Field set.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// HasCode returns true if err is or wraps an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code Code) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}
