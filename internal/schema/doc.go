// Package schema classifies record types into immutable table layouts.
//
// A record type is a Go struct embedding one base marker:
//
//	type Point struct {
//	    schema.Table          // implicit rowid primary key
//	    X, Y int64
//	}
//
//	type Pair struct {
//	    schema.WithoutRowid   // primary key made of tagged fields
//	    A string `wurm:",primary"`
//	    B string `wurm:",primary"`
//	}
//
// Structs embedding Abstract share fields with the record types that embed
// them and never get a table. Embedding a concrete record type is rejected.
//
// The Catalog builds a Schema once per type. Field types are resolved
// through a typemap.Registry; pointers to registered types are nullable,
// pointers to record types are foreign keys expanding to the target's
// primary-key columns. Relation fields are collected separately and resolved
// lazily with Relation.Resolve.
package schema
