package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/resource/loader"
	"github.com/devantler-tech/kubepack/pkg/resource/merge"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Options configure a Service.
type Options struct {
	Project  v1alpha1.Project
	Recorder *summary.Recorder
	Logger   notify.Logger
}

// Service writes the project manifest.
type Service struct {
	opts Options
}

// New returns a Service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	return &Service{opts: opts}
}

// Resources returns the generated defaults with the fragments from the
// fragments directory merged onto them.
func (s *Service) Resources() ([]*unstructured.Unstructured, error) {
	project := s.opts.Project

	generated, err := Generate(project)
	if err != nil {
		return nil, err
	}

	fragments, err := s.fragments()
	if err != nil {
		return nil, err
	}

	merger := merge.NewMerger(s.opts.Logger, merge.Options{
		SidecarAlignment:     project.Resource.SidecarAlignment,
		DefaultContainerName: AppName(project),
	})

	resources, err := merger.MergeFragments(generated, fragments)
	if err != nil {
		return nil, fmt.Errorf("failed to merge fragments: %w", err)
	}

	if namespace := project.Resource.Namespace; namespace != "" {
		for _, resource := range resources {
			if resource.GetNamespace() == "" && resource.GetKind() != "Namespace" {
				resource.SetNamespace(namespace)
			}
		}
	}

	return resources, nil
}

// Write generates the manifest and writes it to the configured manifest file.
func (s *Service) Write() (string, error) {
	resources, err := s.Resources()
	if err != nil {
		return "", err
	}

	if len(resources) == 0 {
		return "", ErrNoResources
	}

	path := s.opts.Project.Resource.ManifestFile

	err = loader.WriteResources(path, resources)
	if err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	for _, resource := range resources {
		s.opts.Logger.Debugf("generated %s/%s", resource.GetKind(), resource.GetName())
	}

	s.opts.Logger.Infof("wrote %d resources to %s", len(resources), path)
	s.opts.Recorder.AddGeneratedResource(path)

	return path, nil
}

func (s *Service) fragments() ([]*unstructured.Unstructured, error) {
	dir := s.opts.Project.Resource.FragmentsDir
	if dir == "" {
		return nil, nil
	}

	_, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.opts.Logger.Debugf("no fragments directory %s", dir)

		return nil, nil
	}

	fragments, err := loader.LoadManifests(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load fragments: %w", err)
	}

	return fragments, nil
}
