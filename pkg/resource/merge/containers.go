package merge

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
)

// alignment maps a fragment container index to its generated counterpart.
type alignment map[int]int

// mergeContainerLists merges the fragment containers with the generated ones
// and returns the merged list plus the application container name.
//
// The result holds the fragment containers in their order, each merged with
// its aligned generated container, followed by the generated containers no
// fragment container was aligned with.
func (m *Merger) mergeContainerLists(fragment, generated []any) ([]any, string, error) {
	if len(generated) == 0 {
		if len(fragment) == 0 {
			return nil, "", nil
		}

		result := runtime.DeepCopyJSONValue(fragment).([]any) //nolint:forcetypeassert // copy of a []any
		m.nameFirstNameless(result)

		return result, firstName(result), nil
	}

	if len(fragment) == 0 {
		result := runtime.DeepCopyJSONValue(generated).([]any) //nolint:forcetypeassert // copy of a []any

		return result, firstName(result), nil
	}

	aligned, err := m.align(fragment, generated)
	if err != nil {
		return nil, "", err
	}

	used := make(map[int]bool, len(aligned))
	result := make([]any, 0, len(fragment)+len(generated))

	for index, item := range fragment {
		generatedIndex, ok := aligned[index]
		if !ok {
			result = append(result, runtime.DeepCopyJSONValue(item))

			continue
		}

		used[generatedIndex] = true

		merged, err := mergeContainerValues(item, generated[generatedIndex])
		if err != nil {
			return nil, "", err
		}

		result = append(result, merged)
	}

	for index, item := range generated {
		if !used[index] {
			result = append(result, runtime.DeepCopyJSONValue(item))
		}
	}

	return result, firstName(result), nil
}

// align pairs fragment containers with generated containers, by position or,
// with sidecar alignment, by name. A nameless fragment container overrides the
// first generated container that no named fragment container claimed.
func (m *Merger) align(fragment, generated []any) (alignment, error) {
	aligned := alignment{}

	if !m.options.SidecarAlignment {
		for index := range min(len(fragment), len(generated)) {
			aligned[index] = index
		}

		return aligned, nil
	}

	fragmentNames, err := containerNames(fragment)
	if err != nil {
		return nil, err
	}

	generatedNames, err := containerNames(generated)
	if err != nil {
		return nil, err
	}

	claimed := map[int]bool{}

	for fragmentIndex, name := range fragmentNames {
		if name == "" {
			continue
		}

		for generatedIndex, generatedName := range generatedNames {
			if generatedName == name && !claimed[generatedIndex] {
				aligned[fragmentIndex] = generatedIndex
				claimed[generatedIndex] = true

				break
			}
		}
	}

	for fragmentIndex, name := range fragmentNames {
		if name != "" {
			continue
		}

		for generatedIndex := range generatedNames {
			if !claimed[generatedIndex] {
				aligned[fragmentIndex] = generatedIndex
				claimed[generatedIndex] = true

				break
			}
		}
	}

	return aligned, nil
}

func (m *Merger) nameFirstNameless(containers []any) {
	if m.options.DefaultContainerName == "" {
		return
	}

	for _, item := range containers {
		container, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if name, _ := container["name"].(string); name == "" {
			container["name"] = m.options.DefaultContainerName

			return
		}
	}
}

func containerNames(containers []any) ([]string, error) {
	names := make([]string, len(containers))

	for index, item := range containers {
		container, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidContainer, index)
		}

		names[index], _ = container["name"].(string)
	}

	return names, nil
}

func firstName(containers []any) string {
	for _, item := range containers {
		container, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if name, _ := container["name"].(string); name != "" {
			return name
		}
	}

	return ""
}

func mergeContainerValues(fragment, generated any) (any, error) {
	fragmentMap, ok := fragment.(map[string]any)
	if !ok {
		return nil, ErrInvalidContainer
	}

	generatedMap, ok := generated.(map[string]any)
	if !ok {
		return nil, ErrInvalidContainer
	}

	return MergeContainer(fragmentMap, generatedMap), nil
}
