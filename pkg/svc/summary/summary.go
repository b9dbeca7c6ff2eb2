package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/devantler-tech/kubepack/pkg/notify"
)

const (
	// FileName is the name of the persisted summary file.
	FileName = "summary.json"

	dirPermissions  = 0o750
	filePermissions = 0o600
)

// Image is the summary of one image.
type Image struct {
	Name string `json:"name"`
	// BaseImage is the image the build started from.
	BaseImage string `json:"baseImage,omitzero"`
	// ImageStreamUsed is the ImageStream an S2I build wrote to.
	ImageStreamUsed string `json:"imageStreamUsed,omitzero"`
	// Dockerfile is the Dockerfile path used by daemon builds.
	Dockerfile string `json:"dockerfile,omitzero"`
	Built      bool   `json:"built,omitzero"`
	Pushed     bool   `json:"pushed,omitzero"`
}

// HelmChart is the summary of a generated Helm chart.
type HelmChart struct {
	Name       string `json:"name"`
	Version    string `json:"version,omitzero"`
	Archive    string `json:"archive,omitzero"`
	Repository string `json:"repository,omitzero"`
}

// Summary is the persisted report.
type Summary struct {
	Actions             []string    `json:"actions,omitempty"`
	BuildStrategy       string      `json:"buildStrategy,omitzero"`
	PushRegistry        string      `json:"pushRegistry,omitzero"`
	Images              []Image     `json:"images,omitempty"`
	BuildConfigs        []string    `json:"buildConfigs,omitempty"`
	GeneratedResources  []string    `json:"generatedResources,omitempty"`
	AppliedResources    []string    `json:"appliedResources,omitempty"`
	UndeployedResources []string    `json:"undeployedResources,omitempty"`
	HelmCharts          []HelmChart `json:"helmCharts,omitempty"`
	Successful          bool        `json:"successful"`
	FailureCause        string      `json:"failureCause,omitzero"`
}

// Recorder accumulates a Summary and keeps its file up to date.
// All methods accept a nil receiver and do nothing.
//
// The Add setters append in call order but never record the same value twice,
// so running a command again within one run does not repeat its entries.
// Images and Helm charts are keyed by name instead.
type Recorder struct {
	path   string
	logger notify.Logger
	out    io.Writer
	data   Summary
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithOutput sets the writer Print renders to. It defaults to os.Stdout.
func WithOutput(out io.Writer) Option {
	return func(r *Recorder) { r.out = out }
}

// Init returns a Recorder persisting to <outputDir>/summary.json. A previous
// summary found there is loaded so the new invocation adds to it. An empty
// outputDir keeps the summary in memory only.
func Init(outputDir string, logger notify.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = notify.Discard()
	}

	recorder := &Recorder{logger: logger, out: os.Stdout}
	if outputDir != "" {
		recorder.path = filepath.Join(outputDir, FileName)
	}

	for _, opt := range opts {
		opt(recorder)
	}

	data, err := Load(recorder.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("ignoring previous summary: %v", err)
	}

	recorder.data = data

	return recorder
}

// Load reads a persisted summary.
func Load(path string) (Summary, error) {
	if path == "" {
		return Summary{}, fs.ErrNotExist
	}

	//nolint:gosec // path is derived from the configured output directory
	content, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read summary: %w", err)
	}

	var data Summary

	err = json.Unmarshal(content, &data)
	if err != nil {
		return Summary{}, fmt.Errorf("%w %s: %w", ErrInvalidSummary, path, err)
	}

	return data, nil
}

// Path returns the summary file path, empty for in-memory recorders.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}

	return r.path
}

// Snapshot returns a copy of the accumulated summary.
func (r *Recorder) Snapshot() Summary {
	if r == nil {
		return Summary{}
	}

	out := r.data
	out.Actions = slices.Clone(r.data.Actions)
	out.Images = slices.Clone(r.data.Images)
	out.BuildConfigs = slices.Clone(r.data.BuildConfigs)
	out.GeneratedResources = slices.Clone(r.data.GeneratedResources)
	out.AppliedResources = slices.Clone(r.data.AppliedResources)
	out.UndeployedResources = slices.Clone(r.data.UndeployedResources)
	out.HelmCharts = slices.Clone(r.data.HelmCharts)

	return out
}

// Clear resets the summary and removes its file.
func (r *Recorder) Clear() {
	if r == nil {
		return
	}

	r.data = Summary{}

	if r.path == "" {
		return
	}

	err := os.Remove(r.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warnf("failed to remove summary %s: %v", r.path, err)
	}
}

// AddAction records a kubepack action taking part in the run. Repeats are skipped.
func (r *Recorder) AddAction(action string) {
	r.update(func(data *Summary) {
		data.Actions = appendUnique(data.Actions, action)
	})
}

// SetBuildStrategy records the strategy images were built with.
func (r *Recorder) SetBuildStrategy(strategy string) {
	r.update(func(data *Summary) { data.BuildStrategy = strategy })
}

// SetPushRegistry records the registry images were pushed to.
func (r *Recorder) SetPushRegistry(registry string) {
	r.update(func(data *Summary) { data.PushRegistry = registry })
}

// AddImage merges image into the summary entry with the same name. Non empty
// fields overwrite, boolean flags are sticky.
func (r *Recorder) AddImage(image Image) {
	r.update(func(data *Summary) {
		index := slices.IndexFunc(data.Images, func(existing Image) bool {
			return existing.Name == image.Name
		})
		if index < 0 {
			data.Images = append(data.Images, image)

			return
		}

		existing := &data.Images[index]
		existing.BaseImage = firstNonEmpty(image.BaseImage, existing.BaseImage)
		existing.ImageStreamUsed = firstNonEmpty(image.ImageStreamUsed, existing.ImageStreamUsed)
		existing.Dockerfile = firstNonEmpty(image.Dockerfile, existing.Dockerfile)
		existing.Built = existing.Built || image.Built
		existing.Pushed = existing.Pushed || image.Pushed
	})
}

// AddBuildConfig records an OpenShift BuildConfig used by an S2I build. Repeats are skipped.
func (r *Recorder) AddBuildConfig(name string) {
	r.update(func(data *Summary) {
		data.BuildConfigs = appendUnique(data.BuildConfigs, name)
	})
}

// AddGeneratedResource records a generated manifest file. Repeats are skipped.
func (r *Recorder) AddGeneratedResource(path string) {
	r.update(func(data *Summary) {
		data.GeneratedResources = appendUnique(data.GeneratedResources, path)
	})
}

// AddAppliedResource records an applied resource (Kind/name). Repeats are skipped.
func (r *Recorder) AddAppliedResource(resource string) {
	r.update(func(data *Summary) {
		data.AppliedResources = appendUnique(data.AppliedResources, resource)
	})
}

// AddUndeployedResource records a deleted resource (Kind/name). Repeats are skipped.
func (r *Recorder) AddUndeployedResource(resource string) {
	r.update(func(data *Summary) {
		data.UndeployedResources = appendUnique(data.UndeployedResources, resource)
	})
}

// AddHelmChart records a packaged chart, replacing an entry with the same name.
func (r *Recorder) AddHelmChart(chart HelmChart) {
	r.update(func(data *Summary) {
		data.HelmCharts = slices.DeleteFunc(data.HelmCharts, func(existing HelmChart) bool {
			return existing.Name == chart.Name
		})
		data.HelmCharts = append(data.HelmCharts, chart)
	})
}

// SetSuccessful marks the run as successful and clears any failure cause.
func (r *Recorder) SetSuccessful() {
	r.update(func(data *Summary) {
		data.Successful = true
		data.FailureCause = ""
	})
}

// SetFailureAndCause marks the run as failed. The last call wins.
func (r *Recorder) SetFailureAndCause(cause string) {
	r.update(func(data *Summary) {
		data.Successful = false
		data.FailureCause = cause
	})
}

// SetFailure marks the run as failed with err as the cause.
func (r *Recorder) SetFailure(err error) {
	if err == nil {
		return
	}

	r.SetFailureAndCause(err.Error())
}

func (r *Recorder) update(change func(*Summary)) {
	if r == nil {
		return
	}

	change(&r.data)

	err := r.save()
	if err != nil {
		r.logger.Warnf("failed to persist summary: %v", err)
	}
}

func (r *Recorder) save() error {
	if r.path == "" {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(r.path), dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	content, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	err = os.WriteFile(r.path, content, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

func appendUnique(values []string, value string) []string {
	if value == "" || slices.Contains(values, value) {
		return values
	}

	return append(values, value)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
