package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/routecard/internal/platform/envutil"
)

// EnvPrefix prefixes environment overrides: ROUTECARD_<SECTION>_<KEY>.
const EnvPrefix = "ROUTECARD"

// Source is a read-only view over sectioned configuration. It is loaded
// once at startup and never refreshed mid-run.
type Source struct {
	path     string
	sections map[string]map[string]any
}

// Load reads a YAML file of top-level sections. A missing file yields an
// empty Source so every lookup falls back to env or defaults.
func Load(path string) (*Source, error) {
	src := &Source{path: path, sections: map[string]map[string]any{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return src, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &src.sections); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if src.sections == nil {
		src.sections = map[string]map[string]any{}
	}
	return src, nil
}

// FromMap builds a Source without touching the filesystem.
func FromMap(sections map[string]map[string]any) *Source {
	if sections == nil {
		sections = map[string]map[string]any{}
	}
	return &Source{sections: sections}
}

func (s *Source) Path() string { return s.path }

func envName(section, key string) string {
	return strings.ToUpper(EnvPrefix + "_" + section + "_" + key)
}

func (s *Source) raw(section, key string) (any, bool) {
	if v, ok := envutil.Lookup(envName(section, key)); ok {
		return v, true
	}
	if s == nil {
		return nil, false
	}
	sec, ok := s.sections[section]
	if !ok {
		return nil, false
	}
	v, ok := sec[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (s *Source) String(section, key, def string) string {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	str := strings.TrimSpace(fmt.Sprint(v))
	if str == "" {
		return def
	}
	return str
}

func (s *Source) Int(section, key string, def int) int {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	i, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
	if err != nil {
		return def
	}
	return i
}

func (s *Source) Float(section, key string, def float64) float64 {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
	if err != nil {
		return def
	}
	return f
}

func (s *Source) Bool(section, key string, def bool) bool {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	b, err := strconv.ParseBool(strings.TrimSpace(fmt.Sprint(v)))
	if err != nil {
		return def
	}
	return b
}

func (s *Source) Duration(section, key string, def time.Duration) time.Duration {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(fmt.Sprint(v)))
	if err != nil {
		return def
	}
	return d
}

// Strings returns a list value. Env overrides are comma separated.
func (s *Source) Strings(section, key string, def []string) []string {
	v, ok := s.raw(section, key)
	if !ok {
		return def
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if str := strings.TrimSpace(fmt.Sprint(item)); str != "" {
				out = append(out, str)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	default:
		return def
	}
	return out
}
