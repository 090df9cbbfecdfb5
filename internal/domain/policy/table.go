package policy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v4"

	"leadtrack/internal/domain/auth"
)

const (
	ResourceTargets   = "targets"
	ResourceEvents    = "events"
	ResourceProfiles  = "profiles"
	ResourceReports   = "reports"
	ResourceStats     = "stats"
	ResourceAudit     = "audit"
	ResourceEmployees = "employees"

	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAssign = "assign"
	ActionExport = "export"
)

//go:embed default.yaml
var defaultTable []byte

type grant struct {
	role     auth.Role
	resource string
	action   string
}

// Table answers (role, resource, action) lookups. It is immutable once built.
type Table struct {
	grants map[grant]struct{}
}

func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParseTable(raw)
}

func ParseTable(raw []byte) (*Table, error) {
	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}
	table := &Table{grants: map[grant]struct{}{}}
	for roleName, resources := range doc {
		role, ok := auth.ParseRole(roleName)
		if !ok {
			return nil, fmt.Errorf("policy table: unknown role %q", roleName)
		}
		for resource, actions := range resources {
			for _, action := range actions {
				key := grant{role: role, resource: normalize(resource), action: normalize(action)}
				table.grants[key] = struct{}{}
			}
		}
	}
	return table, nil
}

func (t *Table) Allows(role auth.Role, resource, action string) bool {
	if t == nil {
		return false
	}
	_, ok := t.grants[grant{role: role, resource: normalize(resource), action: normalize(action)}]
	return ok
}

// Actions lists what role may do on resource, sorted.
func (t *Table) Actions(role auth.Role, resource string) []string {
	if t == nil {
		return nil
	}
	var out []string
	resource = normalize(resource)
	for key := range t.grants {
		if key.role == role && key.resource == resource {
			out = append(out, key.action)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
