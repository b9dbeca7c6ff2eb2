package helm

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/devantler-tech/kubepack/pkg/client/oci"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/resource/loader"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
	imagespec "github.com/opencontainers/image-spec/specs-go/v1"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
)

const (
	// ConfigMediaType is the media type of the chart metadata blob.
	ConfigMediaType types.MediaType = "application/vnd.cncf.helm.config.v1+json"
	// ContentMediaType is the media type of the packaged chart layer.
	ContentMediaType types.MediaType = "application/vnd.cncf.helm.chart.content.v1.tar+gzip"

	ociScheme = "oci://"
)

// Options configure a Service.
type Options struct {
	Config       v1alpha1.HelmConfig
	Project      v1alpha1.JavaProject
	PushRegistry *v1alpha1.RegistryConfig
	Credentials  *registryauth.Resolver
	Recorder     *summary.Recorder
	Logger       notify.Logger
}

// Service generates, packages and pushes charts.
type Service struct {
	opts Options
}

// New returns a Service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	if opts.Credentials == nil {
		opts.Credentials = registryauth.NewResolver(opts.Logger)
	}

	return &Service{opts: opts}
}

// Generate writes the chart for the manifest found in sourceDirs, validates
// it and packages it next to the chart directory.
func (s *Service) Generate(sourceDirs []string, manifestFile string) (*Chart, error) {
	resources, found, err := loader.Load(sourceDirs, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("%w in %v", ErrNoManifest, sourceDirs)
	}

	if len(resources) == 0 {
		return nil, ErrNoResources
	}

	metadata := s.metadata()

	err = metadata.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}

	entries, err := chartFiles(metadata, resources)
	if err != nil {
		return nil, err
	}

	chart := &Chart{
		Metadata:  metadata,
		Directory: filepath.Join(s.opts.Config.OutputDir, metadata.Name),
		Archive:   filepath.Join(s.opts.Config.OutputDir, ArchiveName(metadata.Name, metadata.Version)),
	}

	err = writeDirectory(chart.Directory, entries)
	if err != nil {
		return nil, err
	}

	err = packageChart(chart.Archive, metadata.Name, entries)
	if err != nil {
		return nil, err
	}

	err = validate(chart.Archive)
	if err != nil {
		return nil, err
	}

	s.opts.Logger.Infof("created chart %s %s at %s", metadata.Name, metadata.Version, chart.Archive)
	s.opts.Recorder.AddHelmChart(summary.HelmChart{
		Name:    metadata.Name,
		Version: metadata.Version,
		Archive: chart.Archive,
	})

	return chart, nil
}

// Push uploads the packaged chart to the configured OCI repository, retrying
// transient failures up to retries times.
func (s *Service) Push(ctx context.Context, chart *Chart, retries int) error {
	reference, err := s.Reference(chart)
	if err != nil {
		return err
	}

	ref, err := oci.ParseReference(reference)
	if err != nil {
		return err //nolint:wrapcheck // oci names the reference
	}

	credentials, err := s.opts.Credentials.ForRegistry(s.opts.PushRegistry, true, ref.Context().RegistryStr())
	if err != nil {
		return fmt.Errorf("failed to resolve push credentials: %w", err)
	}

	artifact, err := newChartArtifact(chart)
	if err != nil {
		return err
	}

	auth := credentials.Authenticator()

	exists, err := oci.Exists(ctx, ref, auth)
	if err == nil && exists {
		s.opts.Logger.Warnf("chart %s already exists and will be overwritten", reference)
	}

	s.opts.Logger.Infof("pushing chart %s", reference)

	err = netretry.Do(ctx, netretry.NewPolicy(retries), func(attempt int) error {
		if attempt > 0 {
			s.opts.Logger.Warnf("retrying push of %s (attempt %d of %d)", reference, attempt+1, retries+1)
		}

		return oci.Push(ctx, ref, artifact, auth)
	})
	if err != nil {
		return registryauth.ExplainAuthFailure(err, credentials)
	}

	s.opts.Recorder.AddHelmChart(summary.HelmChart{
		Name:       chart.Name(),
		Version:    chart.Version(),
		Archive:    chart.Archive,
		Repository: reference,
	})

	return nil
}

// Reference returns the OCI reference chart is pushed to. Helm tags replace
// "+" in versions with "_".
func (s *Service) Reference(chart *Chart) (string, error) {
	repository := s.opts.Config.Repository
	if repository == "" {
		return "", ErrNoRepository
	}

	if !strings.HasPrefix(repository, ociScheme) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRepository, repository)
	}

	repository = strings.TrimSuffix(strings.TrimPrefix(repository, ociScheme), "/")

	return repository + "/" + chart.Name() + ":" + strings.ReplaceAll(chart.Version(), "+", "_"), nil
}

func (s *Service) metadata() *chartv2.Metadata {
	config := s.opts.Config

	name := config.Chart
	if name == "" {
		name = s.opts.Project.ArtifactID
	}

	version := config.Version
	if version == "" {
		version = s.opts.Project.Version
	}

	description := config.Description
	if description == "" {
		description = "Helm chart for " + name
	}

	return &chartv2.Metadata{
		APIVersion:  chartv2.APIVersionV2,
		Name:        name,
		Version:     version,
		AppVersion:  s.opts.Project.Version,
		Description: description,
		Type:        "application",
	}
}

func newChartArtifact(chart *Chart) (v1.Image, error) {
	content, err := readArchive(chart.Archive)
	if err != nil {
		return nil, err
	}

	config, err := json.Marshal(chart.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chart metadata: %w", err)
	}

	annotations := map[string]string{
		imagespec.AnnotationTitle:       chart.Name(),
		imagespec.AnnotationVersion:     chart.Version(),
		imagespec.AnnotationDescription: chart.Metadata.Description,
		imagespec.AnnotationCreated:     time.Unix(0, 0).UTC().Format(time.RFC3339),
	}

	//nolint:wrapcheck // oci describes the failing part
	return oci.NewArtifact(ConfigMediaType, config, []v1.Layer{static.NewLayer(content, ContentMediaType)}, annotations)
}
