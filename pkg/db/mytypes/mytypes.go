package mytypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FastestLap is stored as jsonb
type FastestLap struct {
	Time   float64 `json:"time"`
	Holder string  `json:"holder"`
	Lap    int     `json:"lap"`
}

func (h *FastestLap) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("value is not []byte")
	}
}

func (h FastestLap) Value() (driver.Value, error) {
	return json.Marshal(h)
}
