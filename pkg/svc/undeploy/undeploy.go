package undeploy

import (
	"context"
	"errors"
	"fmt"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/resource/loader"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/dynamic"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
)

// standardScheme holds the built-in kinds plus CustomResourceDefinition, so
// CRDs themselves are deleted as standard cluster scoped resources.
var standardScheme = newStandardScheme() //nolint:gochecknoglobals

func newStandardScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(s))
	utilruntime.Must(apiextensionsv1.AddToScheme(s))

	return s
}

// ClientFactory returns the cluster clients. It is only called when there is
// something to undeploy.
type ClientFactory func() (*k8s.Clients, error)

// Options configure an Engine.
type Options struct {
	Clients  ClientFactory
	Recorder *summary.Recorder
	Logger   notify.Logger
}

// Engine deletes manifest resources from a cluster.
type Engine struct {
	opts Options
}

// New returns an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	return &Engine{opts: opts}
}

// Option customizes one Undeploy call.
type Option func(*request)

type request struct {
	namespace string
}

// WithNamespace deletes namespaced resources in namespace, overriding the
// resource configuration.
func WithNamespace(namespace string) Option {
	return func(r *request) {
		r.namespace = namespace
	}
}

// target is one resource with the endpoint it is deleted through.
type target struct {
	obj    *unstructured.Unstructured
	client dynamic.ResourceInterface
}

// Undeploy deletes every resource of the manifest found in sourceDirs.
//
// manifestFile is tried before config.ManifestFile and may name a directory
// of manifests. A missing manifest is not an error.
func (e *Engine) Undeploy(
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
		e.opts.Logger.Warnf("no manifest found in %v, nothing to undeploy", sourceDirs)

		return nil
	}

	if len(resources) == 0 {
		e.opts.Logger.Infof("manifest contains no resources, nothing to undeploy")

		return nil
	}

	if e.opts.Clients == nil {
		return ErrNoClients
	}

	clients, err := e.opts.Clients()
	if err != nil {
		return fmt.Errorf("failed to connect to the cluster: %w", err)
	}

	namespace := firstNonEmpty(req.namespace, clients.Namespace, k8s.DefaultNamespace)
	standard, custom := partition(resources)

	targets, errs := standardTargets(clients, standard, req.namespace, namespace)

	index := &crdIndex{client: clients.APIExtensions}

	for _, obj := range custom {
		customTarget, err := e.customTarget(ctx, clients.Dynamic, clients.Mapper, index, obj, req.namespace, namespace)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		targets = append(targets, customTarget)
	}

	for _, current := range targets {
		err := e.delete(ctx, current, config)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d resources: %w", ErrUndeployFailed, len(errs), len(resources), errors.Join(errs...))
	}

	return nil
}

func (e *Engine) customTarget(
	ctx context.Context,
	client dynamic.Interface,
	mapper meta.RESTMapper,
	index *crdIndex,
	obj *unstructured.Unstructured,
	override, fallback string,
) (target, error) {
	crdContext, err := index.lookup(ctx, obj.GroupVersionKind())
	if errors.Is(err, ErrCRDNotFound) && mapper != nil {
		// Kinds served by an aggregated API (OpenShift builds, routes) have
		// no CRD but are known to discovery.
		gvr, namespaced, mapErr := k8s.ResourceMapping(mapper, obj.GroupVersionKind())
		if mapErr == nil {
			if !namespaced {
				return target{obj: obj, client: client.Resource(gvr)}, nil
			}

			namespace := firstNonEmpty(override, obj.GetNamespace(), fallback)

			return target{obj: obj, client: client.Resource(gvr).Namespace(namespace)}, nil
		}
	}

	if err != nil {
		e.opts.Logger.Errorf("cannot undeploy %s: %v", describe(obj), err)

		return target{}, fmt.Errorf("%s: %w", describe(obj), err)
	}

	if !crdContext.Namespaced() {
		return target{obj: obj, client: client.Resource(crdContext.Resource())}, nil
	}

	namespace := firstNonEmpty(override, obj.GetNamespace(), fallback)

	return target{obj: obj, client: client.Resource(crdContext.Resource()).Namespace(namespace)}, nil
}

// delete removes one resource. Resources that are already gone are skipped
// without a delete request.
func (e *Engine) delete(ctx context.Context, current target, config v1alpha1.ResourceConfig) error {
	name := current.obj.GetName()
	description := describe(current.obj)

	_, err := current.client.Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		e.opts.Logger.Debugf("%s not found, skipping", description)

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get %s: %w", description, err)
	}

	e.opts.Logger.Infof("deleting %s", description)

	err = DeleteAndWait(ctx, current.client, name, config.DeleteWaitRetries, config.DeleteWaitInterval)
	if errors.Is(err, ErrStillPresent) {
		e.opts.Logger.Warnf("%s is still being deleted", description)
	} else if err != nil {
		e.opts.Logger.Errorf("failed to delete %s: %v", description, err)

		return fmt.Errorf("%s: %w", description, err)
	}

	e.opts.Recorder.AddUndeployedResource(description)

	return nil
}

// standardTargets maps standard resources to their endpoints, namespaced
// resources ahead of cluster scoped ones.
func standardTargets(
	clients *k8s.Clients,
	resources []*unstructured.Unstructured,
	override, fallback string,
) ([]target, []error) {
	var (
		namespaced, clusterScoped []target
		errs                      []error
	)

	for _, obj := range resources {
		gvr, isNamespaced, err := k8s.ResourceMapping(clients.Mapper, obj.GroupVersionKind())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", describe(obj), err))

			continue
		}

		if !isNamespaced {
			clusterScoped = append(clusterScoped, target{obj: obj, client: clients.Dynamic.Resource(gvr)})

			continue
		}

		namespace := firstNonEmpty(override, obj.GetNamespace(), fallback)
		namespaced = append(namespaced, target{obj: obj, client: clients.Dynamic.Resource(gvr).Namespace(namespace)})
	}

	return append(namespaced, clusterScoped...), errs
}

// partition splits resources into built-in kinds (including CRDs) and custom
// resources.
func partition(resources []*unstructured.Unstructured) ([]*unstructured.Unstructured, []*unstructured.Unstructured) {
	var standard, custom []*unstructured.Unstructured

	for _, obj := range resources {
		if standardScheme.Recognizes(obj.GroupVersionKind()) {
			standard = append(standard, obj)
		} else {
			custom = append(custom, obj)
		}
	}

	return standard, custom
}

func describe(obj *unstructured.Unstructured) string {
	return obj.GetKind() + "/" + obj.GetName()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
