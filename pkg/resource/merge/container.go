package merge

import (
	"k8s.io/apimachinery/pkg/runtime"
)

// copiedFields are taken from the generated container when the fragment
// container leaves them unset.
//
//nolint:gochecknoglobals // static field table
var copiedFields = []string{
	"name",
	"image",
	"imagePullPolicy",
	"workingDir",
	"terminationMessagePath",
	"terminationMessagePolicy",
	"stdin",
	"stdinOnce",
	"tty",
	"readinessProbe",
	"livenessProbe",
	"startupProbe",
	"securityContext",
}

// MergeContainer returns a copy of fragment with every unset field filled
// from generated.
//
// Scalar fields, health checks and the security context are copied when the
// fragment leaves them unset. Environment variables are merged by name and ports by
// name or container port, with fragment entries first. Everything else the
// fragment declares is kept as written.
func MergeContainer(fragment, generated map[string]any) map[string]any {
	merged := runtime.DeepCopyJSON(fragment)

	for _, field := range copiedFields {
		value, ok := generated[field]
		if !ok || !isUnset(merged[field]) {
			continue
		}

		merged[field] = runtime.DeepCopyJSONValue(value)
	}

	if env := mergeEntries(merged["env"], generated["env"], sameEnv); env != nil {
		merged["env"] = env
	}

	if ports := mergeEntries(merged["ports"], generated["ports"], samePort); ports != nil {
		merged["ports"] = ports
	}

	return merged
}

func isUnset(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case bool:
		return !typed
	default:
		return false
	}
}

// mergeEntries appends the generated entries no fragment entry matches. It
// returns nil when generated has nothing to add.
func mergeEntries(fragment, generated any, same func(a, b map[string]any) bool) []any {
	generatedEntries, _ := generated.([]any)
	if len(generatedEntries) == 0 {
		return nil
	}

	fragmentEntries, _ := fragment.([]any)

	merged := make([]any, 0, len(fragmentEntries)+len(generatedEntries))
	merged = append(merged, fragmentEntries...)

	for _, candidate := range generatedEntries {
		candidateMap, ok := candidate.(map[string]any)
		if !ok || containsEntry(merged, candidateMap, same) {
			continue
		}

		merged = append(merged, runtime.DeepCopyJSONValue(candidateMap))
	}

	return merged
}

func containsEntry(entries []any, candidate map[string]any, same func(a, b map[string]any) bool) bool {
	for _, entry := range entries {
		if entryMap, ok := entry.(map[string]any); ok && same(entryMap, candidate) {
			return true
		}
	}

	return false
}

func sameEnv(a, b map[string]any) bool {
	name, _ := a["name"].(string)

	return name != "" && name == b["name"]
}

func samePort(a, b map[string]any) bool {
	if name, _ := a["name"].(string); name != "" && name == b["name"] {
		return true
	}

	port, ok := asInt64(a["containerPort"])

	return ok && port != 0 && port == mustInt64(b["containerPort"])
}

func asInt64(value any) (int64, bool) {
	switch typed := value.(type) {
	case int64:
		return typed, true
	case int:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case float64:
		return int64(typed), true
	default:
		return 0, false
	}
}

func mustInt64(value any) int64 {
	number, _ := asInt64(value)

	return number
}
