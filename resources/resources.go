// Package resources decides where data objects live in an AFP data
// stream: resource levels, the object type registry, interchange set
// capabilities, the include cache and scope resolution.
package resources

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Level is where a resource is kept. The zero value, Unset, stands for
// "not chosen" and is replaced by the configured default.
type Level int

const (
	Unset Level = iota
	Inline
	Page
	PageGroup
	Document
	PrintFile
	External
)

var levelNames = map[Level]string{
	Inline:    "inline",
	Page:      "page",
	PageGroup: "page-group",
	Document:  "document",
	PrintFile: "print-file",
	External:  "external",
}

func (l Level) String() string {
	if l == Unset {
		return "unset"
	}
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts the names returned by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == key {
			return l, nil
		}
	}
	return Unset, fmt.Errorf("unknown resource level %q", s)
}

// MarshalText lets levels appear by name in configuration files.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// IsResourceGroup reports whether objects at l are kept in a resource
// group rather than inline in the page.
func (l Level) IsResourceGroup() bool { return l > Inline }

// InterchangeSet is the MO:DCA-P interchange set the output conforms to.
type InterchangeSet int

const (
	IS1 InterchangeSet = 1
	IS2 InterchangeSet = 2
	IS3 InterchangeSet = 3
)

func (s InterchangeSet) String() string { return fmt.Sprintf("MO:DCA-P IS/%d", int(s)) }

// SupportsIncludes reports whether resources may be referenced through
// include fields.
func (s InterchangeSet) SupportsIncludes() bool { return s >= IS2 }

// SupportsObjectContainers reports whether non-OCA object containers
// may be included.
func (s InterchangeSet) SupportsObjectContainers() bool { return s >= IS3 }

// ParseInterchangeSet accepts "IS/2", "MO:DCA-P IS/2", "is2" or "2".
func ParseInterchangeSet(s string) (InterchangeSet, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "MO:DCA-P")
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "IS")
	v = strings.TrimPrefix(v, "/")
	switch v {
	case "1":
		return IS1, nil
	case "2":
		return IS2, nil
	case "3":
		return IS3, nil
	}
	return 0, fmt.Errorf("unknown interchange set %q", s)
}

func (s InterchangeSet) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *InterchangeSet) UnmarshalText(b []byte) error {
	v, err := ParseInterchangeSet(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Scope is one level of the container hierarchy that can hold
// resources.
type Scope interface {
	Level() Level
	// Accepts reports whether resources can still be added, i.e. the
	// scope's begin field has not been written yet.
	Accepts() bool
	ParentScope() Scope
}

var ErrNoScope = errors.New("no scope accepts resources at this level")

// Resolve finds the scope that should hold a resource requested at
// level, starting from the innermost scope. A scope that no longer
// accepts resources hands the request to its parent.
func Resolve(scope Scope, level Level) (Scope, error) {
	for s := scope; s != nil; s = s.ParentScope() {
		if s.Level() < level {
			continue
		}
		if s.Accepts() {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", level, ErrNoScope)
}

// Fingerprint returns a content key for data objects without a URI.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}
