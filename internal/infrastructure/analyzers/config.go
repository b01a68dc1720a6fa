package analyzers

import (
	"fmt"
	"strconv"
	"strings"

	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Section is the configuration table of one analyzer.
type Section map[string]any

func (s Section) lookup(key string) (any, bool) {
	if v, ok := s[key]; ok {
		return v, true
	}
	// viper lower-cases keys; accept either spelling
	v, ok := s[strings.ToLower(key)]
	return v, ok
}

// requireString fails with ErrMissingConfig when key is absent or empty.
func (s Section) requireString(analyzer, key string) (string, error) {
	v, ok := s.lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s requires %q", sharedErrors.ErrMissingConfig, analyzer, key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s must be a string, got %T", sharedErrors.ErrInvalidConfig, analyzer, key, v)
	}
	if str == "" {
		return "", fmt.Errorf("%w: %s requires a non-empty %q", sharedErrors.ErrMissingConfig, analyzer, key)
	}
	return str, nil
}

func (s Section) optionalString(analyzer, key, def string) (string, error) {
	v, ok := s.lookup(key)
	if !ok {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s must be a string, got %T", sharedErrors.ErrInvalidConfig, analyzer, key, v)
	}
	return str, nil
}

func (s Section) optionalBool(analyzer, key string, def bool) (bool, error) {
	v, ok := s.lookup(key)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("%w: %s.%s: %v", sharedErrors.ErrInvalidConfig, analyzer, key, err)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("%w: %s.%s must be a bool, got %T", sharedErrors.ErrInvalidConfig, analyzer, key, v)
}

// optionalStrings accepts a list or a comma-separated string.
func (s Section) optionalStrings(analyzer, key string) ([]string, error) {
	v, ok := s.lookup(key)
	if !ok {
		return nil, nil
	}
	var raw []string
	switch list := v.(type) {
	case string:
		raw = strings.Split(list, ",")
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			str, isString := item.(string)
			if !isString {
				return nil, fmt.Errorf("%w: %s.%s entries must be strings, got %T", sharedErrors.ErrInvalidConfig, analyzer, key, item)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%w: %s.%s must be a list of strings, got %T", sharedErrors.ErrInvalidConfig, analyzer, key, v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}
