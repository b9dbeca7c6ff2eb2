package merge

import (
	"maps"
	"slices"

	"k8s.io/apimachinery/pkg/runtime"
)

// fill copies every key of defaults that is absent from target into target.
// Nested objects present on both sides are filled recursively; any other
// value already present on target is kept.
func fill(target, defaults map[string]any) {
	for _, key := range slices.Sorted(maps.Keys(defaults)) {
		defaultValue := defaults[key]

		current, exists := target[key]
		if !exists {
			target[key] = runtime.DeepCopyJSONValue(defaultValue)

			continue
		}

		currentMap, currentIsMap := current.(map[string]any)
		defaultMap, defaultIsMap := defaultValue.(map[string]any)

		if currentIsMap && defaultIsMap {
			fill(currentMap, defaultMap)
		}
	}
}

// mapAt returns the nested object at path, or nil when absent or not an object.
func mapAt(obj map[string]any, path ...string) map[string]any {
	current := obj

	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}

		current = next
	}

	return current
}

// sliceAt returns the nested list at path, or nil when absent or not a list.
func sliceAt(obj map[string]any, path ...string) []any {
	parent := mapAt(obj, path[:len(path)-1]...)
	if parent == nil {
		return nil
	}

	list, _ := parent[path[len(path)-1]].([]any)

	return list
}

// removeBlank deletes every entry of the map at path whose value is nil or an
// empty string, and deletes the map itself when it ends up empty.
func removeBlank(obj map[string]any, path ...string) {
	parent := mapAt(obj, path[:len(path)-1]...)
	if parent == nil {
		return
	}

	key := path[len(path)-1]

	entries, ok := parent[key].(map[string]any)
	if !ok {
		return
	}

	for name, value := range entries {
		if value == nil || value == "" {
			delete(entries, name)
		}
	}

	if len(entries) == 0 {
		delete(parent, key)
	}
}

// MergeMaps returns original overlaid with override. Entries whose resulting
// value is blank are dropped, so a blank override value deletes the entry.
func MergeMaps(override, original map[string]string) map[string]string {
	result := make(map[string]string, len(original)+len(override))
	maps.Copy(result, original)
	maps.Copy(result, override)

	for key, value := range result {
		if value == "" {
			delete(result, key)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

func runtimeCopy(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}

	return runtime.DeepCopyJSON(obj)
}
