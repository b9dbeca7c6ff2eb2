// Package summary accumulates what one or more kubepack invocations did
// (images built and pushed, resources generated, applied or undeployed,
// Helm charts packaged) and renders it as an end of run report.
//
// The report is stored as JSON in <outputDir>/summary.json after every change
// so that separate invocations, for example build followed by push and apply,
// contribute to the same report. A Recorder is not safe for concurrent use.
package summary
