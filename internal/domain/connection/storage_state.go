package connection

import (
	"encoding/json"
	"fmt"
)

// StorageState is a browser session snapshot: cookies plus per-origin localStorage.
// The JSON shape matches the storage-state documents browser automation tools load
// back into a fresh context.
type StorageState struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// Cookie is a single browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // unix seconds, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"` // Strict, Lax or None
}

// OriginState holds localStorage entries for one origin
type OriginState struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// NameValue is a localStorage entry
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieNamed returns the first cookie with the given name
func (s *StorageState) CookieNamed(name string) (Cookie, bool) {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// ToMap converts the state into plain JSON values for storage in a configuration map.
func (s *StorageState) ToMap() map[string]any {
	b, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// StorageStateFromAny decodes a storage state held in a configuration map. The
// value may be a *StorageState, a decoded JSON object, or a raw JSON string.
func StorageStateFromAny(v any) (*StorageState, error) {
	var raw []byte
	switch t := v.(type) {
	case *StorageState:
		return t, nil
	case StorageState:
		return &t, nil
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode storage state: %w", err)
		}
		raw = b
	}
	var s StorageState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode storage state: %w", err)
	}
	return &s, nil
}
