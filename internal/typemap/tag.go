package typemap

import (
	"reflect"
	"strings"
)

// TagKey is the struct tag key read by wurm.
const TagKey = "wurm"

// Tag is the parsed form of a `wurm:"..."` struct tag.
//
// Grammar: a comma-separated list whose first element is an optional name,
// followed by flags (primary, unique) and key=value options (target, load).
// A tag of "-" skips the field.
//
//	Name  string `wurm:"display_name,unique"`
//	Key   string `wurm:",primary"`
//	Kids  wurm.Relation[Kid] `wurm:"target=Kid.parent,load=strict"`
type Tag struct {
	Name    string
	Skip    bool
	Primary bool
	Unique  bool
	Target  string
	Load    string
}

// ParseTag parses the wurm tag of a struct field.
func ParseTag(st reflect.StructTag) Tag {
	raw, ok := st.Lookup(TagKey)
	if !ok {
		return Tag{}
	}
	if raw == "-" {
		return Tag{Skip: true}
	}

	var tag Tag
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		key, value, hasValue := strings.Cut(part, "=")
		switch {
		case hasValue && key == "target":
			tag.Target = value
		case hasValue && key == "load":
			tag.Load = value
		case hasValue && key == "name":
			tag.Name = value
		case part == "primary":
			tag.Primary = true
		case part == "unique":
			tag.Unique = true
		case i == 0:
			tag.Name = part
		}
	}
	return tag
}
