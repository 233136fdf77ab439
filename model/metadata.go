package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Metadata represents JSONB metadata stored in PostgreSQL.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage.
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval.
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes.
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes (or an already-decoded Metadata) into m.
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("metadata: type assertion to []byte failed")
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(b, m)
}

// Merge shallow-overwrites m with the keys of other.
func (m Metadata) Merge(other Metadata) {
	for k, v := range other {
		m[k] = v
	}
}
