package cmd

import (
	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/spf13/pflag"
)

const (
	configFlag       = "config"
	verboseFlag      = "verbose"
	kubeconfigFlag   = "kubeconfig"
	contextFlag      = "context"
	summaryFlag      = "summary"
	freshSummaryFlag = "fresh-summary"
	namespaceFlag    = "namespace"
	manifestFlag     = "manifest"
	strategyFlag     = "strategy"
	retriesFlag      = "retries"
)

// globalFlagKeys maps persistent flags to config keys.
//
//nolint:gochecknoglobals // static flag table
var globalFlagKeys = map[string]string{
	kubeconfigFlag: "kubeconfig",
	contextFlag:    "context",
	summaryFlag:    "summary",
}

func addStrategyFlag(flags *pflag.FlagSet) {
	var strategy v1alpha1.Strategy

	flags.Var(&strategy, strategyFlag, "Build strategy (docker, s2i, jib, buildpacks, spring)")
}

func addNamespaceFlag(flags *pflag.FlagSet) {
	flags.StringP(namespaceFlag, "n", "", "Namespace of namespaced resources")
}

func addManifestFlag(flags *pflag.FlagSet) {
	flags.StringP(manifestFlag, "f", "", "Manifest file or directory of manifests")
}
