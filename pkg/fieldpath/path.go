package fieldpath

import (
	"strconv"
	"strings"
)

// Segment is a single hop inside a Path: either an object field name or an
// array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a field-name segment.
func Key(name string) Segment {
	return Segment{key: name}
}

// Index returns an array-index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses an array slot.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the field name for key segments and "" for index segments.
func (s Segment) Key() string { return s.key }

// Index returns the array index for index segments and -1 for key segments.
func (s Segment) Index() int {
	if !s.isIndex {
		return -1
	}
	return s.index
}

// String renders the segment the way it appears inside a serialized path.
func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// Path addresses one location inside a data tree, whether or not the location
// currently holds a value.
type Path []Segment

// Of builds a Path from strings (field names) and ints (indices). Any other
// type panics; Of is meant for literals in code and tests.
func Of(parts ...any) Path {
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			out = append(out, Key(v))
		case int:
			out = append(out, Index(v))
		case Segment:
			out = append(out, v)
		default:
			panic("fieldpath: unsupported segment type")
		}
	}
	return out
}

// String serializes the path as `a.b[0].c`: field hops are joined by dots and
// index hops are bracketed without a leading dot.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, seg := range p {
		if seg.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.key)
	}
	return b.String()
}

// Equal reports whether both paths hold the same segment sequence.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Append returns a new path with the segments appended. The receiver is left
// untouched even when it has spare capacity.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Child is shorthand for Append(Key(name)).
func (p Path) Child(name string) Path {
	return p.Append(Key(name))
}

// At is shorthand for Append(Index(i)).
func (p Path) At(i int) Path {
	return p.Append(Index(i))
}

// Parent splits the path into its container path and last segment. ok is
// false for the empty path.
func (p Path) Parent() (parent Path, last Segment, ok bool) {
	if len(p) == 0 {
		return nil, Segment{}, false
	}
	return p[:len(p)-1 : len(p)-1], p[len(p)-1], true
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// ValidKey reports whether name can be used as a key segment and still
// survive a String/Parse round trip.
func ValidKey(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".[]")
}
