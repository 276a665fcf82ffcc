package identity

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindID
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	default:
		return "unknown"
	}
}

// Key correlates one player across the lineup, event and statistics feeds of a single tick.
// It is comparable and safe to use as a map key; only the variant and its payload take part
// in equality.
type Key struct {
	kind Kind
	id   int64
	name string
}

func FromID(externalID int64) Key {
	return Key{kind: KindID, id: externalID}
}

func FromName(rawName string) Key {
	return Key{kind: KindName, name: strings.TrimSpace(rawName)}
}

// Generate prefers the upstream id and falls back to the trimmed display name.
func Generate(externalID *int64, rawName string) Key {
	if externalID != nil {
		return FromID(*externalID)
	}
	return FromName(rawName)
}

func (k Key) Kind() Kind {
	return k.kind
}

func (k Key) IsIDBased() bool {
	return k.kind == KindID
}

// IsZero reports keys that cannot identify anyone: the zero value and blank names.
func (k Key) IsZero() bool {
	switch k.kind {
	case KindID:
		return false
	case KindName:
		return k.name == ""
	default:
		return true
	}
}

func (k Key) ExternalID() (int64, bool) {
	if k.kind != KindID {
		return 0, false
	}
	return k.id, true
}

// Name returns the raw name of a name-based key and "" otherwise.
func (k Key) Name() string {
	if k.kind != KindName {
		return ""
	}
	return k.name
}

func (k Key) String() string {
	switch k.kind {
	case KindID:
		return "id:" + strconv.FormatInt(k.id, 10)
	case KindName:
		return "name:" + k.name
	default:
		return ""
	}
}

func (k Key) MarshalText() ([]byte, error) {
	if k.kind == KindUnknown {
		return nil, fmt.Errorf("marshal identity key: empty key")
	}
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Parse reverses String. Storage keeps keys in this textual form.
func Parse(raw string) (Key, error) {
	prefix, payload, ok := strings.Cut(raw, ":")
	if !ok {
		return Key{}, fmt.Errorf("parse identity key %q: missing kind prefix", raw)
	}

	switch prefix {
	case "id":
		value, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("parse identity key %q: %w", raw, err)
		}
		return FromID(value), nil
	case "name":
		key := FromName(payload)
		if key.IsZero() {
			return Key{}, fmt.Errorf("parse identity key %q: blank name", raw)
		}
		return key, nil
	default:
		return Key{}, fmt.Errorf("parse identity key %q: unknown kind %q", raw, prefix)
	}
}

// Compare orders id keys before name keys, ids numerically and names lexically.
func Compare(a, b Key) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindID:
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	default:
		return strings.Compare(a.name, b.name)
	}
}
