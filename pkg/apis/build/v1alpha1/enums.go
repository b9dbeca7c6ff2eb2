package v1alpha1

import (
	"fmt"
	"slices"
	"strings"
)

// EnumValuer is implemented by string-based enum types to provide their valid values.
type EnumValuer interface {
	// ValidValues returns all valid string values for this enum type.
	ValidValues() []string
}

// --- Strategy ---

// Strategy selects the backend used to build and push container images.
type Strategy string

const (
	// StrategyNone means no strategy was configured explicitly.
	StrategyNone Strategy = ""
	// StrategyDocker builds images through a Docker daemon.
	StrategyDocker Strategy = "docker"
	// StrategyS2I builds images with an OpenShift binary Source-to-Image build.
	StrategyS2I Strategy = "s2i"
	// StrategyJib assembles images without a daemon and pushes them with the registry API.
	StrategyJib Strategy = "jib"
	// StrategyBuildpacks builds images with Cloud Native Buildpacks (pack CLI).
	StrategyBuildpacks Strategy = "buildpacks"
	// StrategySpring delegates image building to the Spring Boot build plugin.
	StrategySpring Strategy = "spring"
)

// ValidStrategies returns the configurable strategies in selection priority order.
func ValidStrategies() []Strategy {
	return []Strategy{
		StrategyDocker,
		StrategyS2I,
		StrategyJib,
		StrategyBuildpacks,
		StrategySpring,
	}
}

// Set parses a strategy from a string (case-insensitive). Implements pflag.Value.
func (s *Strategy) Set(value string) error {
	if value == "" {
		*s = StrategyNone

		return nil
	}

	for _, strategy := range ValidStrategies() {
		if strings.EqualFold(value, string(strategy)) {
			*s = strategy

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s)",
		ErrInvalidStrategy,
		value,
		strings.Join(s.ValidValues(), ", "),
	)
}

// IsValid reports whether the strategy is one of the configurable strategies.
func (s *Strategy) IsValid() bool {
	return slices.Contains(ValidStrategies(), *s)
}

// String returns the string representation of the Strategy.
func (s *Strategy) String() string {
	return string(*s)
}

// Type returns the type of the Strategy.
func (s *Strategy) Type() string {
	return "Strategy"
}

// ValidValues returns all valid Strategy values as strings.
func (s Strategy) ValidValues() []string {
	values := make([]string, 0, len(ValidStrategies()))
	for _, strategy := range ValidStrategies() {
		values = append(values, string(strategy))
	}

	return values
}

// --- RecreateMode ---

// RecreateMode controls which OpenShift build objects are deleted before an S2I build.
type RecreateMode string

const (
	// RecreateNone keeps existing BuildConfigs and ImageStreams.
	RecreateNone RecreateMode = "none"
	// RecreateAll recreates both BuildConfigs and ImageStreams.
	RecreateAll RecreateMode = "all"
	// RecreateBuildConfig recreates BuildConfigs only.
	RecreateBuildConfig RecreateMode = "bc"
	// RecreateImageStream recreates ImageStreams only.
	RecreateImageStream RecreateMode = "is"
)

// ValidRecreateModes returns all supported recreate modes.
func ValidRecreateModes() []RecreateMode {
	return []RecreateMode{RecreateNone, RecreateAll, RecreateBuildConfig, RecreateImageStream}
}

// Set parses a recreate mode from a string. "true" maps to all and "false" to none.
func (r *RecreateMode) Set(value string) error {
	switch strings.ToLower(value) {
	case "", "false":
		*r = RecreateNone

		return nil
	case "true":
		*r = RecreateAll

		return nil
	}

	for _, mode := range ValidRecreateModes() {
		if strings.EqualFold(value, string(mode)) {
			*r = mode

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidRecreateMode, value)
}

// String returns the string representation of the RecreateMode.
func (r *RecreateMode) String() string {
	return string(*r)
}

// Type returns the type of the RecreateMode.
func (r *RecreateMode) Type() string {
	return "RecreateMode"
}

// ValidValues returns all valid RecreateMode values as strings.
func (r RecreateMode) ValidValues() []string {
	return []string{
		string(RecreateNone),
		string(RecreateAll),
		string(RecreateBuildConfig),
		string(RecreateImageStream),
	}
}

// IsBuildRecreate reports whether BuildConfigs must be recreated.
func (r RecreateMode) IsBuildRecreate() bool {
	return r == RecreateAll || r == RecreateBuildConfig
}

// IsImageStreamRecreate reports whether ImageStreams must be recreated.
func (r RecreateMode) IsImageStreamRecreate() bool {
	return r == RecreateAll || r == RecreateImageStream
}

// --- PullPolicy ---

// PullPolicy controls when base images are pulled before a build.
type PullPolicy string

const (
	// PullAlways pulls base images on every build.
	PullAlways PullPolicy = "Always"
	// PullIfNotPresent pulls base images only when missing locally.
	PullIfNotPresent PullPolicy = "IfNotPresent"
	// PullNever never pulls base images.
	PullNever PullPolicy = "Never"
)

// Set parses a pull policy from a string (case-insensitive).
func (p *PullPolicy) Set(value string) error {
	for _, policy := range []PullPolicy{PullAlways, PullIfNotPresent, PullNever} {
		if strings.EqualFold(value, string(policy)) {
			*p = policy

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidPullPolicy, value)
}

// String returns the string representation of the PullPolicy.
func (p *PullPolicy) String() string {
	return string(*p)
}

// Type returns the type of the PullPolicy.
func (p *PullPolicy) Type() string {
	return "PullPolicy"
}

// ValidValues returns all valid PullPolicy values as strings.
func (p PullPolicy) ValidValues() []string {
	return []string{string(PullAlways), string(PullIfNotPresent), string(PullNever)}
}

// --- BuildTool ---

// BuildTool identifies the build tool that produced the project descriptor.
type BuildTool string

const (
	// BuildToolMaven is a Maven project (pom.xml).
	BuildToolMaven BuildTool = "maven"
	// BuildToolGradle is a Gradle project (build.gradle / build.gradle.kts).
	BuildToolGradle BuildTool = "gradle"
)

// Set parses a build tool from a string (case-insensitive).
func (b *BuildTool) Set(value string) error {
	for _, tool := range []BuildTool{BuildToolMaven, BuildToolGradle} {
		if strings.EqualFold(value, string(tool)) {
			*b = tool

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidBuildTool, value)
}

// String returns the string representation of the BuildTool.
func (b *BuildTool) String() string {
	return string(*b)
}

// Type returns the type of the BuildTool.
func (b *BuildTool) Type() string {
	return "BuildTool"
}

// ValidValues returns all valid BuildTool values as strings.
func (b BuildTool) ValidValues() []string {
	return []string{string(BuildToolMaven), string(BuildToolGradle)}
}
