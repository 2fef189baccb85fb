package graph

import "strings"

// Role is the part a stage plays in the data flow.
type Role string

const (
	RoleSource    Role = "source"
	RoleTransform Role = "transform"
	RoleSink      Role = "sink"
	RoleAction    Role = "action"
	RoleCondition Role = "condition"
	RoleOther     Role = "other"
)

// RoleMap maps plugin types to roles.
type RoleMap map[string]Role

// DefaultPluginRoles returns the built-in plugin type table.
func DefaultPluginRoles() RoleMap {
	return RoleMap{
		"batchsource":       RoleSource,
		"realtimesource":    RoleSource,
		"streamingsource":   RoleSource,
		"transform":         RoleTransform,
		"batchaggregator":   RoleTransform,
		"batchjoiner":       RoleTransform,
		"sparkcompute":      RoleTransform,
		"windower":          RoleTransform,
		"splittertransform": RoleTransform,
		"errortransform":    RoleTransform,
		"batchsink":         RoleSink,
		"realtimesink":      RoleSink,
		"sparksink":         RoleSink,
		"action":            RoleAction,
		"postaction":        RoleAction,
		"condition":         RoleCondition,
	}
}

// Classify returns the role of a plugin type, RoleOther when unknown.
// Lookup is case-insensitive.
func (m RoleMap) Classify(pluginType string) Role {
	if r, ok := m[pluginType]; ok {
		return r
	}
	if r, ok := m[strings.ToLower(pluginType)]; ok {
		return r
	}
	return RoleOther
}

// StagesWithRole returns the names of stages classified as role, in
// declaration order and without duplicates.
func (m RoleMap) StagesWithRole(stages []Stage, role Role) []string {
	seen := make(map[string]struct{}, len(stages))
	out := make([]string, 0)
	for _, s := range stages {
		if m.Classify(s.Plugin.Type) != role {
			continue
		}
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s.Name)
	}
	return out
}
