package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrPath is matched by every *PathError via errors.Is.
var ErrPath = errors.New("fieldpath: malformed path")

// PathError reports malformed path text.
type PathError struct {
	Input  string
	Offset int
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("fieldpath: %s at offset %d in %q", e.Reason, e.Offset, e.Input)
}

// Is lets errors.Is(err, ErrPath) match any PathError.
func (e *PathError) Is(target error) bool {
	return target == ErrPath
}

// Parse deserializes `a.b[0].c` style text into a Path. It is the exact
// inverse of Path.String. The empty string parses to the empty path.
func Parse(text string) (Path, error) {
	if text == "" {
		return Path{}, nil
	}

	var out Path
	i := 0
	// expectKey is true at the start and right after a dot.
	expectKey := true
	for i < len(text) {
		switch ch := text[i]; ch {
		case '[':
			if expectKey && i > 0 {
				return nil, &PathError{Input: text, Offset: i, Reason: "index after '.'"}
			}
			end := i + 1
			for end < len(text) && text[end] != ']' {
				if text[end] == '[' || text[end] == '.' {
					return nil, &PathError{Input: text, Offset: end, Reason: "unbalanced brackets"}
				}
				end++
			}
			if end >= len(text) {
				return nil, &PathError{Input: text, Offset: i, Reason: "unbalanced brackets"}
			}
			raw := text[i+1 : end]
			idx, err := parseIndex(raw)
			if err != nil {
				return nil, &PathError{Input: text, Offset: i + 1, Reason: err.Error()}
			}
			out = append(out, Index(idx))
			i = end + 1
			expectKey = false
			if i < len(text) && text[i] != '.' && text[i] != '[' {
				return nil, &PathError{Input: text, Offset: i, Reason: "unexpected character after index"}
			}
		case ']':
			return nil, &PathError{Input: text, Offset: i, Reason: "unbalanced brackets"}
		case '.':
			if expectKey {
				return nil, &PathError{Input: text, Offset: i, Reason: "empty field name"}
			}
			expectKey = true
			i++
			if i == len(text) {
				return nil, &PathError{Input: text, Offset: i, Reason: "empty field name"}
			}
		default:
			if !expectKey {
				return nil, &PathError{Input: text, Offset: i, Reason: "missing '.' before field name"}
			}
			start := i
			for i < len(text) && text[i] != '.' && text[i] != '[' && text[i] != ']' {
				i++
			}
			out = append(out, Key(text[start:i]))
			expectKey = false
		}
	}
	return out, nil
}

// MustParse is Parse for literals known to be well formed.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func parseIndex(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("empty index")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric index %q", raw)
		}
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("index %q out of range", raw)
	}
	return idx, nil
}

// MarshalText serializes the path, so paths encode as strings in JSON and
// YAML documents.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a serialized path.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
