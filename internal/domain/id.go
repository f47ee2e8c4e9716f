package domain

import "github.com/google/uuid"

// ID is a 128-bit identifier used for every identity field in the event
// envelope (event_id, aggregate_id, performed_by, organization_id, ...).
//
// It deliberately carries no persistence-adapter methods (no
// database/sql/driver.Valuer or Scanner) — conversion to and from a
// storage representation is an infrastructure concern, not a domain one.
type ID uuid.UUID

// NewID generates a fresh random identifier.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses a string into an ID, failing if it is not a well-formed
// 128-bit identifier.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID(u), nil
}

// MustParseID parses s and panics if it is not a well-formed identifier.
// Reserved for tests and fixtures; production paths use ParseID.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// deterministicNamespace anchors every NewDeterministicID call to the
// same UUID v5 namespace, so the same (namespace, name) pair always
// folds to the same identifier.
var deterministicNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewDeterministicID derives a stable identifier from a caller-supplied
// namespace and name, using UUID v5. It exists for adapters that must
// map an external system's own local keys onto domain.ID without a
// lookup table: the same local key always produces the same ID.
func NewDeterministicID(namespace, name string) ID {
	return ID(uuid.NewSHA1(deterministicNamespace, []byte(namespace+":"+name)))
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero identifier.
func (id ID) IsZero() bool {
	return id == ID{}
}
