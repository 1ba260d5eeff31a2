package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// TagMap holds metric tags and maps to a PostgreSQL JSONB column.
// It implements sql.Scanner and driver.Valuer so repositories can read and
// write tags without manual marshalling.
type TagMap map[string]string

// Scan implements the sql.Scanner interface.
func (t *TagMap) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for TagMap")
	}

	if len(data) == 0 {
		*t = TagMap{}
		return nil
	}

	return json.Unmarshal(data, t)
}

// Value implements the driver.Valuer interface.
func (t TagMap) Value() (driver.Value, error) {
	if len(t) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}
