package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/devantler-tech/kubepack/pkg/fsutil"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

//nolint:gochecknoglobals // static set of manifest extensions
var manifestExtensions = []string{".yaml", ".yml", ".json"}

// IsManifest reports whether path has a manifest file extension.
func IsManifest(path string) bool {
	return slices.Contains(manifestExtensions, strings.ToLower(filepath.Ext(path)))
}

// LoadResources reads every resource from a YAML or JSON manifest file.
func LoadResources(path string) ([]*unstructured.Unstructured, error) {
	// #nosec G304 -- manifest path is supplied by the user
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	resources, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}

	return resources, nil
}

// Decode parses a multi-document YAML or JSON stream. Empty documents are
// skipped and List kinds are flattened into their items.
func Decode(content []byte) ([]*unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(content)))

	var resources []*unstructured.Unstructured

	for index := 1; ; index++ {
		document, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return resources, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read document %d: %w", index, err)
		}

		jsonDocument, err := yaml.YAMLToJSON(document)
		if err != nil {
			return nil, fmt.Errorf("convert document %d: %w", index, err)
		}

		jsonDocument = bytes.TrimSpace(jsonDocument)
		if len(jsonDocument) == 0 || bytes.Equal(jsonDocument, []byte("null")) || bytes.Equal(jsonDocument, []byte("{}")) {
			continue
		}

		obj := &unstructured.Unstructured{}

		err = obj.UnmarshalJSON(jsonDocument)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidDocument, index, err)
		}

		flattened, err := flatten(obj)
		if err != nil {
			return nil, err
		}

		resources = append(resources, flattened...)
	}
}

func flatten(obj *unstructured.Unstructured) ([]*unstructured.Unstructured, error) {
	if obj.GetAPIVersion() == "" || obj.GetKind() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingKind, obj.GetName())
	}

	if !obj.IsList() {
		return []*unstructured.Unstructured{obj}, nil
	}

	items, _, err := unstructured.NestedSlice(obj.Object, "items")
	if err != nil {
		return nil, fmt.Errorf("read list items: %w", err)
	}

	var resources []*unstructured.Unstructured

	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil, ErrInvalidListItem
		}

		nested, err := flatten(&unstructured.Unstructured{Object: object})
		if err != nil {
			return nil, err
		}

		resources = append(resources, nested...)
	}

	return resources, nil
}

// LoadManifests loads every manifest below dir in path order.
func LoadManifests(dir string) ([]*unstructured.Unstructured, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.Type().IsRegular() && IsManifest(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}

	slices.Sort(paths)

	var resources []*unstructured.Unstructured

	for _, path := range paths {
		loaded, err := LoadResources(path)
		if err != nil {
			return nil, err
		}

		resources = append(resources, loaded...)
	}

	return resources, nil
}

// Marshal renders resources as a single v1/List YAML document.
func Marshal(resources []*unstructured.Unstructured) ([]byte, error) {
	items := make([]any, 0, len(resources))
	for _, resource := range resources {
		items = append(items, resource.Object)
	}

	list := map[string]any{
		"apiVersion": "v1",
		"kind":       "List",
		"items":      items,
	}

	content, err := yaml.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal resource list: %w", err)
	}

	return content, nil
}

// WriteResources writes resources to path as a v1/List manifest.
func WriteResources(path string, resources []*unstructured.Unstructured) error {
	content, err := Marshal(resources)
	if err != nil {
		return err
	}

	return fsutil.WriteFile(path, content)
}

// FindManifest returns the first existing manifest among candidates. Relative
// candidates are resolved against each of sourceDirs in order.
func FindManifest(sourceDirs []string, candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		if filepath.IsAbs(candidate) {
			if isFile(candidate) {
				return candidate, true
			}

			continue
		}

		for _, dir := range sourceDirs {
			if path, ok := fsutil.FindFirst(dir, candidate); ok {
				return path, true
			}
		}

		if isFile(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// Load loads the first manifest found among candidates. A candidate naming a
// directory loads every manifest below it; other candidates are resolved with
// FindManifest. found is false when no candidate exists.
func Load(sourceDirs []string, candidates ...string) ([]*unstructured.Unstructured, bool, error) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			resources, err := LoadManifests(candidate)

			return resources, true, err
		}
	}

	path, found := FindManifest(sourceDirs, candidates...)
	if !found {
		return nil, false, nil
	}

	resources, err := LoadResources(path)

	return resources, true, err
}
