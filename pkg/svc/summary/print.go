package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/devantler-tech/kubepack/pkg/notify"
)

// Print renders the summary when enabled is true.
func (r *Recorder) Print(enabled bool) {
	if r == nil || !enabled {
		return
	}

	Render(r.out, r.data)
}

// Render writes the summary report to out.
func Render(out io.Writer, data Summary) {
	notify.Titlef(out, "📋", "kubepack summary")

	if len(data.Actions) > 0 {
		section(out, "Actions", strings.Join(data.Actions, ", "))
	}

	renderImages(out, data)
	renderResources(out, data)
	renderHelm(out, data.HelmCharts)

	if data.Successful {
		notify.Successf(out, "run completed successfully")

		return
	}

	if data.FailureCause != "" {
		notify.Errorf(out, "run failed: %s", data.FailureCause)
	}
}

func renderImages(out io.Writer, data Summary) {
	if data.BuildStrategy != "" {
		section(out, "Build strategy", data.BuildStrategy)
	}

	if len(data.Images) > 0 {
		section(out, "Container images")

		for _, image := range data.Images {
			item(out, image.Name)
			detail(out, "Base image", image.BaseImage)
			detail(out, "Dockerfile", image.Dockerfile)
			detail(out, "ImageStream", image.ImageStreamUsed)

			if image.Built {
				detail(out, "Built", "yes")
			}

			if image.Pushed {
				detail(out, "Pushed", "yes")
			}
		}
	}

	if len(data.BuildConfigs) > 0 {
		section(out, "Build configs", data.BuildConfigs...)
	}

	if data.PushRegistry != "" {
		section(out, "Push registry", data.PushRegistry)
	}
}

func renderResources(out io.Writer, data Summary) {
	if len(data.GeneratedResources) > 0 {
		section(out, "Generated resources", data.GeneratedResources...)
	}

	if len(data.AppliedResources) > 0 {
		section(out, "Applied resources", data.AppliedResources...)
	}

	if len(data.UndeployedResources) > 0 {
		section(out, "Undeployed resources", data.UndeployedResources...)
	}
}

func renderHelm(out io.Writer, charts []HelmChart) {
	if len(charts) == 0 {
		return
	}

	section(out, "Helm charts")

	for _, chart := range charts {
		item(out, chart.Name)
		detail(out, "Version", chart.Version)
		detail(out, "Archive", chart.Archive)
		detail(out, "Repository", chart.Repository)
	}
}

func section(out io.Writer, title string, items ...string) {
	_, _ = fmt.Fprintf(out, "%s:\n", title)

	for _, value := range items {
		item(out, value)
	}
}

func item(out io.Writer, value string) {
	_, _ = fmt.Fprintf(out, "  - %s\n", value)
}

func detail(out io.Writer, key, value string) {
	if value == "" {
		return
	}

	_, _ = fmt.Fprintf(out, "    %s: %s\n", key, value)
}
