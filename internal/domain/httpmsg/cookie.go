package httpmsg

import "strings"

// CookiePair is one key of a Set-Cookie header. Flags such as Secure have an
// empty value.
type CookiePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Cookie is one Set-Cookie header as an ordered list of pairs. The first pair
// is the cookie name and value; attributes follow.
type Cookie []CookiePair

// ParseCookie splits a Set-Cookie value on ';'. Keys keep their case.
func ParseCookie(raw string) Cookie {
	var cookie Cookie
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		cookie = append(cookie, CookiePair{Key: key, Value: strings.TrimSpace(value)})
	}
	return cookie
}

// Name returns the cookie name, or "" for an empty header.
func (c Cookie) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].Key
}

// HasFlag reports whether any key equals flag exactly. "secure" does not
// satisfy "Secure".
func (c Cookie) HasFlag(flag string) bool {
	for _, pair := range c {
		if pair.Key == flag {
			return true
		}
	}
	return false
}

// HasPrefix reports whether the cookie name starts with prefix, case-sensitively.
func (c Cookie) HasPrefix(prefix string) bool {
	return strings.HasPrefix(c.Name(), prefix)
}

func (c Cookie) String() string {
	parts := make([]string, 0, len(c))
	for _, pair := range c {
		if pair.Value == "" {
			parts = append(parts, pair.Key)
			continue
		}
		parts = append(parts, pair.Key+"="+pair.Value)
	}
	return strings.Join(parts, "; ")
}
