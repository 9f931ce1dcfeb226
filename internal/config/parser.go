package config

import (
	"encoding/json"
	"fmt"
)

// Parse decodes one JSON document into a Config and validates it.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	if err := Validate(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Marshal encodes c as indented JSON, matching the teacher's persisted
// config style of human-editable files.
func Marshal(c Config) ([]byte, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return b, nil
}

// DeepMerge applies a JSON patch document onto base: unknown fields in the
// patch are ignored (not an error, matching a permissive PUT); fields
// present in the patch overwrite the corresponding field in base, with
// object-valued sections merged key-by-key rather than replaced wholesale.
// The merged result is bounds-validated before being returned, so a patch
// that would push a field out of range is rejected instead of silently
// applied.
func DeepMerge(base Config, patch []byte) (Config, error) {
	var baseMap map[string]interface{}
	baseBytes, err := json.Marshal(base)
	if err != nil {
		return Config{}, fmt.Errorf("config: merge: marshal base: %w", err)
	}
	if err := json.Unmarshal(baseBytes, &baseMap); err != nil {
		return Config{}, fmt.Errorf("config: merge: remarshal base: %w", err)
	}

	var patchMap map[string]interface{}
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return Config{}, fmt.Errorf("config: merge: malformed patch: %w", err)
	}

	merged := mergeMaps(baseMap, patchMap)

	mergedBytes, err := json.Marshal(merged)
	if err != nil {
		return Config{}, fmt.Errorf("config: merge: marshal merged: %w", err)
	}

	var out Config
	if err := json.Unmarshal(mergedBytes, &out); err != nil {
		return Config{}, fmt.Errorf("config: merge: decode merged: %w", err)
	}
	if err := Validate(&out); err != nil {
		return Config{}, err
	}
	return out, nil
}

// mergeMaps recursively overlays patch onto base, returning a new map. Only
// map[string]interface{} values recurse; any other patch value (including
// arrays) replaces the base value outright.
func mergeMaps(base, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, pv := range patch {
		if bv, ok := out[k]; ok {
			bMap, bIsMap := bv.(map[string]interface{})
			pMap, pIsMap := pv.(map[string]interface{})
			if bIsMap && pIsMap {
				out[k] = mergeMaps(bMap, pMap)
				continue
			}
		}
		out[k] = pv
	}
	return out
}
