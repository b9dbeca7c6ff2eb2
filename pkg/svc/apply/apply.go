package apply

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/resource/loader"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// FieldManager owns the fields kubepack applies.
const FieldManager = "kubepack"

// ClientFactory returns the cluster clients.
type ClientFactory func() (*k8s.Clients, error)

// Options configure a Service.
type Options struct {
	Clients  ClientFactory
	Recorder *summary.Recorder
	Logger   notify.Logger
}

// Service applies manifests.
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

// Option customizes one Apply call.
type Option func(*request)

type request struct {
	namespace string
}

// WithNamespace places namespaced resources in namespace, overriding the
// resource configuration.
func WithNamespace(namespace string) Option {
	return func(r *request) {
		r.namespace = namespace
	}
}

// Apply server-side applies every resource of the manifest found in
// sourceDirs. Resolution of the manifest and of namespaces matches undeploy.
func (s *Service) Apply(
	ctx context.Context,
	sourceDirs []string,
	config v1alpha1.ResourceConfig,
	manifestFile string,
	opts ...Option,
) error {
	req := request{namespace: config.Namespace}
	for _, opt := range opts {
		opt(&req)
	}

	resources, found, err := loader.Load(sourceDirs, manifestFile, config.ManifestFile)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	if !found {
		return fmt.Errorf("%w in %v", ErrNoManifest, sourceDirs)
	}

	if s.opts.Clients == nil {
		return ErrNoClients
	}

	clients, err := s.opts.Clients()
	if err != nil {
		return fmt.Errorf("failed to connect to the cluster: %w", err)
	}

	fallback := firstNonEmpty(req.namespace, clients.Namespace, k8s.DefaultNamespace)
	ordered := order(resources)

	var errs []error

	for index, obj := range ordered {
		// Kinds served by CRDs applied in this call are only discoverable afterwards.
		if index > 0 && isCRD(ordered[index-1]) && !isCRD(obj) {
			meta.MaybeResetRESTMapper(clients.Mapper)
		}

		err := s.apply(ctx, clients, obj, req.namespace, fallback)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d resources: %w", ErrApplyFailed, len(errs), len(resources), errors.Join(errs...))
	}

	return nil
}

func (s *Service) apply(
	ctx context.Context,
	clients *k8s.Clients,
	obj *unstructured.Unstructured,
	override, fallback string,
) error {
	description := obj.GetKind() + "/" + obj.GetName()

	_, namespaced, err := k8s.ResourceMapping(clients.Mapper, obj.GroupVersionKind())
	if err != nil {
		s.opts.Logger.Errorf("cannot apply %s: %v", description, err)

		return fmt.Errorf("%s: %w", description, err)
	}

	desired := obj.DeepCopy()
	if namespaced {
		desired.SetNamespace(firstNonEmpty(override, obj.GetNamespace(), fallback))
	}

	client, err := k8s.ResourceInterface(clients.Dynamic, clients.Mapper, desired, fallback)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}

	s.opts.Logger.Infof("applying %s", description)

	_, err = client.Apply(ctx, desired.GetName(), desired, metav1.ApplyOptions{FieldManager: FieldManager, Force: true})
	if err != nil {
		s.opts.Logger.Errorf("failed to apply %s: %v", description, err)

		return fmt.Errorf("failed to apply %s: %w", description, err)
	}

	s.opts.Recorder.AddAppliedResource(description)

	return nil
}

// order moves Namespaces, then CustomResourceDefinitions, ahead of every
// other resource. Relative order is kept otherwise.
func order(resources []*unstructured.Unstructured) []*unstructured.Unstructured {
	ordered := slices.Clone(resources)

	slices.SortStableFunc(ordered, func(a, b *unstructured.Unstructured) int {
		return cmp.Compare(priority(a), priority(b))
	})

	return ordered
}

func priority(obj *unstructured.Unstructured) int {
	switch {
	case obj.GetKind() == "Namespace" && obj.GroupVersionKind().Group == "":
		return 0
	case isCRD(obj):
		return 1
	default:
		return 2 //nolint:mnd // everything else
	}
}

func isCRD(obj *unstructured.Unstructured) bool {
	gvk := obj.GroupVersionKind()

	return gvk.Kind == "CustomResourceDefinition" && gvk.Group == "apiextensions.k8s.io"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
