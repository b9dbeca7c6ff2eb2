package s2i

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/fsutil/archive"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
)

const (
	// InputArchiveName is the file the binary build input is archived to.
	InputArchiveName = "s2i-build.tar"
	// DefaultPollInterval is the delay between build status checks.
	DefaultPollInterval = 2 * time.Second

	dirPermissions = 0o750

	phaseComplete  = "Complete"
	phaseFailed    = "Failed"
	phaseError     = "Error"
	phaseCancelled = "Cancelled"
)

// Cluster is the connection S2I builds run against.
type Cluster struct {
	Dynamic dynamic.Interface
	Starter BinaryBuildStarter
	// Namespace is used when the build configuration names none.
	Namespace string
}

// ClusterFactory returns the cluster connection. It is called at most once.
type ClusterFactory func() (*Cluster, error)

// ClusterFromClients adapts k8s clients into a ClusterFactory.
func ClusterFromClients(clients func() (*k8s.Clients, error)) ClusterFactory {
	return func() (*Cluster, error) {
		resolved, err := clients()
		if err != nil {
			return nil, err
		}

		return &Cluster{
			Dynamic:   resolved.Dynamic,
			Starter:   &RESTBuildStarter{Client: resolved.Kubernetes.Discovery().RESTClient()},
			Namespace: resolved.Namespace,
		}, nil
	}
}

// Options configure the s2i strategy.
type Options struct {
	Config        v1alpha1.BuildServiceConfig
	BaseDirectory string
	Cluster       ClusterFactory
	Recorder      *summary.Recorder
	Logger        notify.Logger
	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration
}

// Strategy runs OpenShift binary builds.
type Strategy struct {
	opts    Options
	cluster *Cluster
}

// New returns an s2i Strategy.
func New(opts Options) *Strategy {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.Config.BuildTimeout <= 0 {
		opts.Config.BuildTimeout = v1alpha1.DefaultBuildTimeout
	}

	return &Strategy{opts: opts}
}

// Backend returns the strategy as a build table entry.
func (s *Strategy) Backend() build.Backend {
	return build.Backend{Build: s.Build, Push: s.Push}
}

// Build runs a binary build of image in the cluster and waits for it.
func (s *Strategy) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	cluster, err := s.connect()
	if err != nil {
		return err
	}

	namespace := s.namespace(cluster)
	imageName := v1alpha1.ParseImageName(image.Name)
	imageStream := imageName.SimpleName()
	buildConfig := imageStream + s.opts.Config.S2IBuildNameSuffix

	input, dockerfile, err := s.writeInput(image)
	if err != nil {
		return err
	}

	err = s.recreate(ctx, cluster, namespace, imageStream, buildConfig)
	if err != nil {
		return err
	}

	err = s.ensureImageStream(ctx, cluster, namespace, imageStream)
	if err != nil {
		return err
	}

	err = s.ensureBuildConfig(ctx, cluster, buildConfigParams{
		name:       buildConfig,
		namespace:  namespace,
		outputTag:  imageStream + ":" + imageName.Tag,
		dockerfile: dockerfile,
		config:     image.Build,
		forcePull:  s.opts.Config.ForcePull,
	})
	if err != nil {
		return err
	}

	buildName, err := s.startBuild(ctx, cluster, namespace, buildConfig, input)
	if err != nil {
		return err
	}

	err = s.waitForBuild(ctx, cluster, namespace, buildName)
	if err != nil {
		return err
	}

	s.opts.Recorder.AddBuildConfig(buildConfig)
	s.opts.Recorder.AddImage(summary.Image{Name: image.Name, ImageStreamUsed: imageStream})

	return nil
}

// Push does nothing: the build already stored the image in the cluster registry.
func (s *Strategy) Push(_ context.Context, image *v1alpha1.ImageConfiguration, _ build.PushRequest) error {
	s.opts.Logger.Infof("%s: image was pushed to the cluster registry by the build", image.Description())

	return nil
}

func (s *Strategy) connect() (*Cluster, error) {
	if s.cluster != nil {
		return s.cluster, nil
	}

	if s.opts.Cluster == nil {
		return nil, ErrNoCluster
	}

	cluster, err := s.opts.Cluster()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the cluster: %w", err)
	}

	s.cluster = cluster

	return cluster, nil
}

func (s *Strategy) namespace(cluster *Cluster) string {
	switch {
	case s.opts.Config.Namespace != "":
		return s.opts.Config.Namespace
	case cluster.Namespace != "":
		return cluster.Namespace
	default:
		return k8s.DefaultNamespace
	}
}

// writeInput archives the binary build input. Docker builds receive the full
// build context, source builds the assemblies at their target paths.
func (s *Strategy) writeInput(image *v1alpha1.ImageConfiguration) (string, string, error) {
	var (
		entries    []archive.Entry
		dockerfile string
	)

	if image.Build.Dockerfile != "" {
		buildContext, err := build.NewContext(image, s.opts.BaseDirectory)
		if err != nil {
			return "", "", err
		}

		entries, dockerfile = buildContext.Entries, buildContext.Dockerfile
	} else {
		if image.Build.From == "" {
			return "", "", fmt.Errorf("%w: %s", ErrMissingBaseImage, image.Name)
		}

		var err error

		entries, err = s.sourceEntries(image.Build)
		if err != nil {
			return "", "", err
		}
	}

	inputPath := build.ArtifactPath(s.opts.Config.BuildDirectory, image, InputArchiveName)

	err := os.MkdirAll(filepath.Dir(inputPath), dirPermissions)
	if err != nil {
		return "", "", fmt.Errorf("failed to create build directory: %w", err)
	}

	//nolint:gosec // path is derived from the build directory
	file, err := os.Create(inputPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create build input: %w", err)
	}

	defer func() { _ = file.Close() }()

	err = archive.Write(file, entries, archive.Options{})
	if err != nil {
		return "", "", fmt.Errorf("failed to archive build input: %w", err)
	}

	return inputPath, dockerfile, nil
}

func (s *Strategy) sourceEntries(config *v1alpha1.BuildConfiguration) ([]archive.Entry, error) {
	var entries []archive.Entry

	for _, assembly := range config.Assemblies {
		source := assembly.Source
		if !filepath.IsAbs(source) {
			source = filepath.Join(s.opts.BaseDirectory, source)
		}

		files, err := archive.ReadDirectory(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read assembly %s: %w", source, err)
		}

		prefix := strings.TrimPrefix(assembly.TargetDir, "/")
		for _, file := range files {
			file.Name = path.Join(prefix, file.Name)
			entries = append(entries, file)
		}
	}

	return entries, nil
}

func (s *Strategy) recreate(ctx context.Context, cluster *Cluster, namespace, imageStream, buildConfig string) error {
	mode := s.opts.Config.RecreateMode

	if mode.IsBuildRecreate() {
		err := deleteIfExists(ctx, cluster.Dynamic.Resource(BuildConfigResource).Namespace(namespace), buildConfig)
		if err != nil {
			return fmt.Errorf("failed to delete BuildConfig %s: %w", buildConfig, err)
		}
	}

	if mode.IsImageStreamRecreate() {
		err := deleteIfExists(ctx, cluster.Dynamic.Resource(ImageStreamResource).Namespace(namespace), imageStream)
		if err != nil {
			return fmt.Errorf("failed to delete ImageStream %s: %w", imageStream, err)
		}
	}

	return nil
}

func (s *Strategy) ensureImageStream(ctx context.Context, cluster *Cluster, namespace, name string) error {
	client := cluster.Dynamic.Resource(ImageStreamResource).Namespace(namespace)

	_, err := client.Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		s.opts.Logger.Debugf("using ImageStream %s/%s", namespace, name)

		return nil
	}

	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get ImageStream %s: %w", name, err)
	}

	_, err = client.Create(ctx, newImageStream(name, namespace), metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create ImageStream %s: %w", name, err)
	}

	s.opts.Logger.Infof("created ImageStream %s/%s", namespace, name)

	return nil
}

func (s *Strategy) ensureBuildConfig(ctx context.Context, cluster *Cluster, params buildConfigParams) error {
	client := cluster.Dynamic.Resource(BuildConfigResource).Namespace(params.namespace)
	desired := newBuildConfig(params)

	existing, err := client.Get(ctx, params.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = client.Create(ctx, desired, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("failed to create BuildConfig %s: %w", params.name, err)
		}

		s.opts.Logger.Infof("created BuildConfig %s/%s", params.namespace, params.name)

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get BuildConfig %s: %w", params.name, err)
	}

	existing.Object["spec"] = desired.Object["spec"]

	_, err = client.Update(ctx, existing, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update BuildConfig %s: %w", params.name, err)
	}

	s.opts.Logger.Debugf("updated BuildConfig %s/%s", params.namespace, params.name)

	return nil
}

func (s *Strategy) startBuild(
	ctx context.Context,
	cluster *Cluster,
	namespace, buildConfig, inputPath string,
) (string, error) {
	//nolint:gosec // path is derived from the build directory
	input, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to open build input: %w", err)
	}

	defer func() { _ = input.Close() }()

	buildName, err := cluster.Starter.InstantiateBinary(ctx, namespace, buildConfig, input)
	if err != nil {
		return "", fmt.Errorf("failed to start build: %w", err)
	}

	s.opts.Logger.Infof("started build %s/%s", namespace, buildName)

	return buildName, nil
}

func (s *Strategy) waitForBuild(ctx context.Context, cluster *Cluster, namespace, name string) error {
	client := cluster.Dynamic.Resource(BuildResource).Namespace(namespace)

	err := wait.PollUntilContextTimeout(
		ctx,
		s.opts.PollInterval,
		s.opts.Config.BuildTimeout,
		true,
		func(ctx context.Context) (bool, error) {
			current, err := client.Get(ctx, name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return false, nil
			}

			if err != nil {
				return false, fmt.Errorf("failed to get build %s: %w", name, err)
			}

			return buildFinished(current)
		},
	)
	if err != nil {
		return fmt.Errorf("build %s did not complete: %w", name, err)
	}

	s.opts.Logger.Infof("build %s/%s completed", namespace, name)

	return nil
}

func buildFinished(current *unstructured.Unstructured) (bool, error) {
	phase, _, _ := unstructured.NestedString(current.Object, "status", "phase")

	switch phase {
	case phaseComplete:
		return true, nil
	case phaseFailed, phaseError, phaseCancelled:
		message, _, _ := unstructured.NestedString(current.Object, "status", "message")

		return false, fmt.Errorf("%w: %s is %s: %s", ErrBuildFailed, current.GetName(), phase, message)
	default:
		return false, nil
	}
}

func deleteIfExists(ctx context.Context, client dynamic.ResourceInterface, name string) error {
	err := client.Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return err //nolint:wrapcheck // callers add context
	}

	return nil
}
