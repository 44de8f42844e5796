package identifier

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Well known entity tags.
const (
	TagAgent   = "agent"
	TagMessage = "message"
	TagTool    = "tool"
	TagBlock   = "block"
	TagRun     = "run"
	TagStep    = "step"
	TagSource  = "source"
)

// uuidLen is the length of a canonical hyphenated UUID.
const uuidLen = 36

// ErrInvalidFormat is wrapped by every parse failure.
var ErrInvalidFormat = errors.New("invalid identifier format")

// FormatError describes why a text could not be parsed as an Identifier.
type FormatError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidFormat, e.Input, e.Reason)
}

// Unwrap returns ErrInvalidFormat so callers can use errors.Is.
func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// Identifier is an immutable <tag>-<uuid> value. It is comparable with == and
// safe to copy.
type Identifier struct {
	tag string
	id  uuid.UUID
}

// Parse validates text and returns the Identifier it denotes.
func Parse(text string) (Identifier, error) {
	if len(text) < uuidLen+2 {
		switch {
		case len(text) == uuidLen:
			return Identifier{}, &FormatError{Input: text, Reason: "missing tag separator"}
		case len(text) == uuidLen+1 && text[0] == '-':
			return Identifier{}, &FormatError{Input: text, Reason: "empty tag"}
		}
		return Identifier{}, &FormatError{Input: text, Reason: "too short for <tag>-<uuid>"}
	}
	sep := len(text) - uuidLen - 1
	if text[sep] != '-' {
		return Identifier{}, &FormatError{Input: text, Reason: "missing tag separator"}
	}
	tag, suffix := text[:sep], text[sep+1:]
	if err := validateTag(tag); err != nil {
		return Identifier{}, &FormatError{Input: text, Reason: err.Error()}
	}
	id, err := uuid.Parse(suffix)
	if err != nil {
		return Identifier{}, &FormatError{Input: text, Reason: err.Error()}
	}
	return Identifier{tag: tag, id: id}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and package level constants.
func MustParse(text string) Identifier {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// New mints a fresh identifier with a random (v4) UUID under tag.
func New(tag string) (Identifier, error) {
	if err := validateTag(tag); err != nil {
		return Identifier{}, &FormatError{Input: tag, Reason: err.Error()}
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return Identifier{}, fmt.Errorf("generate uuid: %w", err)
	}
	return Identifier{tag: tag, id: id}, nil
}

func validateTag(tag string) error {
	if tag == "" {
		return errors.New("empty tag")
	}
	if tag[len(tag)-1] == '-' || tag[0] == '-' {
		return errors.New("tag must not start or end with '-'")
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("invalid character %q in tag", r)
		}
	}
	return nil
}

// Tag returns the entity kind, e.g. "agent".
func (i Identifier) Tag() string { return i.tag }

// UUID returns the random suffix.
func (i Identifier) UUID() uuid.UUID { return i.id }

// HasTag reports whether the identifier names an entity of the given kind.
func (i Identifier) HasTag(tag string) bool { return !i.IsZero() && i.tag == tag }

// IsZero reports whether i is the zero (absent) identifier.
func (i Identifier) IsZero() bool { return i.tag == "" }

// String returns the canonical text form. The zero value formats as "".
func (i Identifier) String() string {
	if i.IsZero() {
		return ""
	}
	return i.tag + "-" + i.id.String()
}

// MarshalText implements encoding.TextMarshaler.
func (i Identifier) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input is rejected.
func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
