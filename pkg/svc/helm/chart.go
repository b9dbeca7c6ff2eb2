package helm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devantler-tech/kubepack/pkg/fsutil"
	"github.com/devantler-tech/kubepack/pkg/fsutil/archive"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	helmv4loader "helm.sh/helm/v4/pkg/chart/loader"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

const (
	// ChartFile is the chart metadata file.
	ChartFile = "Chart.yaml"
	// ValuesFile is the default values file.
	ValuesFile = "values.yaml"
	// TemplatesDir holds one template per resource.
	TemplatesDir = "templates"
)

// Chart is a generated chart on disk.
type Chart struct {
	Metadata  *chartv2.Metadata
	Directory string
	Archive   string
}

// Name returns the chart name.
func (c *Chart) Name() string {
	return c.Metadata.Name
}

// Version returns the chart version.
func (c *Chart) Version() string {
	return c.Metadata.Version
}

// ArchiveName returns the packaged chart file name.
func ArchiveName(name, version string) string {
	return name + "-" + version + ".tgz"
}

// TemplateName returns the template file of obj: its lower cased name and kind.
func TemplateName(obj *unstructured.Unstructured) string {
	return strings.ToLower(obj.GetName()+"-"+obj.GetKind()) + ".yaml"
}

// chartFiles renders the chart directory content.
func chartFiles(metadata *chartv2.Metadata, resources []*unstructured.Unstructured) ([]archive.Entry, error) {
	chartYAML, err := yaml.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", ChartFile, err)
	}

	entries := []archive.Entry{
		{Name: ChartFile, Content: chartYAML},
		{Name: ValuesFile, Content: []byte("# Default values for " + metadata.Name + ".\n")},
	}

	seen := make(map[string]int)

	for _, obj := range resources {
		content, err := yaml.Marshal(obj.Object)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}

		name := TemplateName(obj)
		if count := seen[name]; count > 0 {
			name = strings.TrimSuffix(name, ".yaml") + fmt.Sprintf("-%d.yaml", count+1)
		}

		seen[TemplateName(obj)]++

		entries = append(entries, archive.Entry{Name: TemplatesDir + "/" + name, Content: content})
	}

	return entries, nil
}

// writeDirectory replaces dir with entries.
func writeDirectory(dir string, entries []archive.Entry) error {
	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("failed to clean chart directory: %w", err)
	}

	for _, entry := range entries {
		err = fsutil.WriteFile(filepath.Join(dir, filepath.FromSlash(entry.Name)), entry.Content)
		if err != nil {
			return fmt.Errorf("failed to write chart file %s: %w", entry.Name, err)
		}
	}

	return nil
}

// packageChart writes the reproducible chart archive.
func packageChart(path, name string, entries []archive.Entry) error {
	var buffer bytes.Buffer

	err := archive.Write(&buffer, entries, archive.Options{Prefix: name, Gzip: true})
	if err != nil {
		return fmt.Errorf("failed to package chart: %w", err)
	}

	err = fsutil.WriteFile(path, buffer.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write chart archive: %w", err)
	}

	return nil
}

// validate loads the packaged chart with the Helm loader.
func validate(path string) error {
	loaded, err := helmv4loader.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}

	loadedChart, ok := loaded.(*chartv2.Chart)
	if !ok {
		return fmt.Errorf("%w: unexpected chart type %T", ErrInvalidChart, loaded)
	}

	err = loadedChart.Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}

	return nil
}

func readArchive(path string) ([]byte, error) {
	//nolint:gosec // path is the archive this package wrote
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart archive: %w", err)
	}

	return content, nil
}
