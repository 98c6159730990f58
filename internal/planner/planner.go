// Package planner turns (child, template type, story variables) into an
// ordered list of per-slot prompt specifications. It is pure: no I/O, and
// byte-identical output for identical input, so regenerating one slot can
// never disturb its siblings.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"storyreel-server/internal/models"
)

// PromptSpec is one planned prompt for one slot, in manifest order.
type PromptSpec struct {
	SlotKey       string           `json:"slotKey"`
	Kind          models.AssetKind `json:"kind"`
	ImageText     string           `json:"imageText,omitempty"`
	NarrationText string           `json:"narrationText,omitempty"`
	SafeZone      string           `json:"safeZone,omitempty"`
}

// Plan expands the template manifest into prompt specs. Required narrative
// variables must be present and non-empty; cosmetic variables fall back to
// the manifest defaults.
func Plan(child *models.Child, templateType string, variables map[string]string) ([]PromptSpec, error) {
	manifest, err := ManifestFor(templateType)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(variables)+len(manifest.CosmeticDefaults)+1)
	for k, v := range manifest.CosmeticDefaults {
		vars[k] = v
	}
	for k, v := range variables {
		vars[k] = v
	}
	if _, ok := vars["child_name"]; !ok && child != nil {
		vars["child_name"] = child.Name
	}

	for _, key := range manifest.RequiredVariables {
		if strings.TrimSpace(vars[key]) == "" {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidVariables, key)
		}
	}

	replacer := newReplacer(vars)

	specs := make([]PromptSpec, 0, len(manifest.Slots))
	for _, slot := range manifest.Slots {
		if slot.Reusable {
			// Library-backed slots carry no prompt text; the generator
			// resolves them against the asset library.
			specs = append(specs, PromptSpec{SlotKey: slot.Key, Kind: slot.Kind})
			continue
		}
		specs = append(specs, PromptSpec{
			SlotKey:       slot.Key,
			Kind:          slot.Kind,
			ImageText:     replacer.Replace(slot.ImageTemplate),
			NarrationText: replacer.Replace(slot.NarrationTemplate),
			SafeZone:      slot.SafeZone,
		})
	}
	return specs, nil
}

// newReplacer builds a strings.Replacer over sorted variable keys so that the
// substitution order is fixed for a given input.
func newReplacer(vars map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...)
}
