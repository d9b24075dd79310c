// Package identity provides the identity map: one live instance per stored
// record.
//
// Entries are keyed by the canonical form of a record's primary key (see
// Key) and hold weak pointers, so the map is a cache and never the owner of
// an instance. Deleting or changing the key fields of a live instance without
// going through the map leaves a stale entry; callers remove entries on
// delete.
package identity
