package httpmsg

import (
	"fmt"
	"strings"
	"unicode"

	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Field is one header line with its name spelled as recorded.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Header is an ordered, case-preserving multimap of header fields.
// Lookups are case-insensitive.
type Header []Field

// Add appends a field, keeping any existing ones with the same name.
func (h *Header) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Get returns the first value for name.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in order.
func (h Header) Values(name string) []string {
	var values []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

// Has reports whether at least one field is named name.
func (h Header) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Clone returns a copy that shares no backing array with h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	copy(out, h)
	return out
}

// CheckUnique fails when two field names are equal ignoring case but are
// spelled differently. Repeated fields with identical spelling are allowed.
func (h Header) CheckUnique() error {
	seen := make(map[string]string, len(h))
	for _, f := range h {
		key := strings.ToLower(f.Name)
		if spelled, ok := seen[key]; ok && spelled != f.Name {
			return fmt.Errorf("%w: %q and %q", sharedErrors.ErrDuplicateHeader, spelled, f.Name)
		}
		seen[key] = f.Name
	}
	return nil
}

// Lowered folds names to lower case and joins repeated values with ", ".
func (h Header) Lowered() map[string]string {
	out := make(map[string]string, len(h))
	for _, f := range h {
		key := strings.ToLower(f.Name)
		if prev, ok := out[key]; ok {
			out[key] = prev + ", " + f.Value
			continue
		}
		out[key] = f.Value
	}
	return out
}

// SetCookies parses every Set-Cookie field.
func (h Header) SetCookies() []Cookie {
	var cookies []Cookie
	for _, value := range h.Values("Set-Cookie") {
		cookies = append(cookies, ParseCookie(value))
	}
	return cookies
}

// Authorization splits the first Authorization header into a lower-cased
// scheme and the remaining credentials. A header without credentials after
// the scheme is reported as absent.
func (h Header) Authorization() (scheme, credentials string, ok bool) {
	value, found := h.Get("Authorization")
	if !found {
		return "", "", false
	}
	value = strings.TrimLeftFunc(value, unicode.IsSpace)
	i := strings.IndexFunc(value, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	credentials = strings.TrimLeftFunc(value[i:], unicode.IsSpace)
	if credentials == "" {
		return "", "", false
	}
	return strings.ToLower(value[:i]), credentials, true
}
