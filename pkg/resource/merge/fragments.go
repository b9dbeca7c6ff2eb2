package merge

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type resourceKey struct {
	kind string
	name string
}

func keyOf(resource *unstructured.Unstructured) resourceKey {
	return resourceKey{kind: resource.GetKind(), name: resource.GetName()}
}

// MergeFragments overlays fragments onto generated resources matched by kind
// and name. Fragments without a generated counterpart are appended in input
// order. The result keeps one resource per kind and name, in generated order.
func (m *Merger) MergeFragments(
	generated, fragments []*unstructured.Unstructured,
) ([]*unstructured.Unstructured, error) {
	result := make([]*unstructured.Unstructured, 0, len(generated)+len(fragments))
	index := make(map[resourceKey]int, len(generated))

	for _, resource := range generated {
		key := keyOf(resource)
		if position, ok := index[key]; ok {
			m.logger.Warnf("duplicate generated %s %s, keeping the last one", key.kind, key.name)
			result[position] = resource.DeepCopy()

			continue
		}

		index[key] = len(result)
		result = append(result, resource.DeepCopy())
	}

	for _, fragment := range fragments {
		key := keyOf(fragment)

		position, ok := index[key]
		if !ok {
			index[key] = len(result)
			result = append(result, fragment.DeepCopy())

			continue
		}

		merged, err := m.Merge(result[position], fragment)
		if err != nil {
			return nil, err
		}

		m.logger.Infof("merged fragment for %s %s", key.kind, key.name)
		result[position] = merged.Resource
	}

	return result, nil
}
