package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Props holds the JSON encoded attributes of a node or edge.
type Props map[string]any

func (p Props) String(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Props) Int(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// OptInt reports whether key holds a number.
func (p Props) OptInt(key string) (int, bool) {
	if p == nil {
		return 0, false
	}
	switch p[key].(type) {
	case int, int32, int64, float64, json.Number:
		return p.Int(key), true
	}
	return 0, false
}

func (p Props) Bool(key string) bool {
	if p == nil {
		return false
	}
	v, _ := p[key].(bool)
	return v
}

func (p Props) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Decode converts the value stored under key into out through JSON.
func (p Props) Decode(key string, out any) error {
	if p == nil || p[key] == nil {
		return nil
	}
	raw, err := json.Marshal(p[key])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// MarshalProps encodes props for storage. A nil map is stored as an empty
// object.
func MarshalProps(p Props) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func UnmarshalProps(data []byte) (Props, error) {
	if len(data) == 0 {
		return Props{}, nil
	}
	p := Props{}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}
