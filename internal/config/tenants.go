package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TenantSeed is one tenant entry in the seed file.
type TenantSeed struct {
	Slug   string `yaml:"slug"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Admin  bool   `yaml:"admin"`
	Active *bool  `yaml:"active"`
}

// IsActive reports whether the tenant should accept mail; omitted means yes.
func (t TenantSeed) IsActive() bool {
	return t.Active == nil || *t.Active
}

type tenantSeedFile struct {
	Tenants []TenantSeed `yaml:"tenants"`
}

// LoadTenantSeed reads the YAML seed file at path. ${VAR} references are
// expanded from the environment before parsing.
func LoadTenantSeed(path string) ([]TenantSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}
	return ParseTenantSeed(data)
}

// ParseTenantSeed parses seed YAML and validates each entry.
func ParseTenantSeed(data []byte) ([]TenantSeed, error) {
	var file tenantSeedFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file: %w", err)
	}

	seen := make(map[string]bool, len(file.Tenants))
	for i := range file.Tenants {
		t := &file.Tenants[i]
		t.Slug = strings.ToLower(strings.TrimSpace(t.Slug))
		if t.Slug == "" {
			return nil, fmt.Errorf("tenant %d: slug is required", i)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("tenant %q listed twice", t.Slug)
		}
		seen[t.Slug] = true
		if t.Name == "" {
			t.Name = t.Slug
		}
	}
	return file.Tenants, nil
}
