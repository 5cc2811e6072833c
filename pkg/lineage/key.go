package lineage

import (
	"regexp"
	"strings"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

// ObjectKey identifies a warehouse object and is the dedup identity of a
// traversal. Keys built from user input go through [NewObjectKey] or
// [ParseObjectKey] so they match the names the lineage oracle reports;
// keys read back from oracle rows are already resolved and are used as-is.
type ObjectKey struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
}

// NewObjectKey normalizes and validates a (database, schema, name) triple.
//
// Unquoted parts are trimmed and upper-cased, the way the warehouse resolves
// unquoted identifiers. Parts wrapped in double quotes keep their case; the
// quotes are removed and doubled quotes inside are unescaped.
func NewObjectKey(database, schema, name string) (ObjectKey, error) {
	k := ObjectKey{
		Database: normalizeIdent(database),
		Schema:   normalizeIdent(schema),
		Name:     normalizeIdent(name),
	}
	if err := k.Validate(); err != nil {
		return ObjectKey{}, err
	}
	return k, nil
}

// ParseObjectKey parses a dotted "DATABASE.SCHEMA.OBJECT" name. Dots inside
// double-quoted parts do not split.
func ParseObjectKey(s string) (ObjectKey, error) {
	parts, err := splitQualified(s)
	if err != nil {
		return ObjectKey{}, err
	}
	if len(parts) != 3 {
		return ObjectKey{}, errors.New(errors.ErrCodeInvalidIdentifier,
			"%q is not a fully qualified name (want DATABASE.SCHEMA.OBJECT)", s)
	}
	return NewObjectKey(parts[0], parts[1], parts[2])
}

// MustParseObjectKey is like [ParseObjectKey] but panics on error.
// It is intended for tests and static tables.
func MustParseObjectKey(s string) ObjectKey {
	k, err := ParseObjectKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate checks that every part of the key is a usable identifier.
func (k ObjectKey) Validate() error {
	if err := errors.ValidateIdentifier("database", k.Database); err != nil {
		return err
	}
	if err := errors.ValidateIdentifier("schema", k.Schema); err != nil {
		return err
	}
	return errors.ValidateIdentifier("object", k.Name)
}

// IsZero reports whether the key is empty.
func (k ObjectKey) IsZero() bool { return k == ObjectKey{} }

// String renders the key as DATABASE.SCHEMA.NAME without quoting.
func (k ObjectKey) String() string {
	return k.Database + "." + k.Schema + "." + k.Name
}

// Qualified renders the key as a fully qualified identifier, quoting each part
// that would not survive as an unquoted identifier.
func (k ObjectKey) Qualified() string {
	return QuoteIdent(k.Database) + "." + QuoteIdent(k.Schema) + "." + QuoteIdent(k.Name)
}

var plainIdentRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_$]*$`)

// QuoteIdent quotes a resolved identifier part when needed.
func QuoteIdent(part string) string {
	if plainIdentRe.MatchString(part) {
		return part
	}
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
}

func normalizeIdent(part string) string {
	part = strings.TrimSpace(part)
	if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
		return strings.ReplaceAll(part[1:len(part)-1], `""`, `"`)
	}
	return strings.ToUpper(part)
}

func splitQualified(s string) ([]string, error) {
	var (
		parts   []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && inQuote && i+1 < len(s) && s[i+1] == '"':
			cur.WriteString(`""`)
			i++
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == '.' && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, errors.New(errors.ErrCodeInvalidIdentifier, "unterminated quoted identifier in %q", s)
	}
	return append(parts, cur.String()), nil
}
