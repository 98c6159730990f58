package planner

import "sort"

// TemplateTypes returns all known template types in stable order.
func TemplateTypes() []string {
	types := make([]string, 0, len(manifests))
	for t := range manifests {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
