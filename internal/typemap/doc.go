// Package typemap is the type and column registry.
//
// A Codec describes how one Go type is stored: its column shape (one
// primitive column, or an ordered set of named primitive columns for
// composite types) and a total encode/decode pair. Encoding an absent value
// yields one storage null per column; decoding all-null columns yields the
// absent value again, so decode(encode(v)) == v holds for every registered
// type including the null case.
//
// Builtin scalars:
//
//	string          TEXT
//	[]byte          BLOB
//	int, int8..64   INTEGER
//	uint8..32       INTEGER
//	float32, 64     REAL
//	bool            INTEGER (0/1)
//	time.Time       TEXT (RFC 3339, nanosecond precision)
//	time.Duration   INTEGER (nanoseconds)
//	uuid.UUID       TEXT
//	language.Tag    TEXT (BCP 47)
//
// Foreign keys are not codecs: they expand to the target record type's
// primary-key columns and are handled by the schema package.
package typemap
