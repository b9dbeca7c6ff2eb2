package configmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/notify"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
const EnvPrefix = "KUBEPACK"

// envKeys are the keys that can be set from the environment without appearing
// in a config file.
var envKeys = []string{
	"kubeconfig",
	"context",
	"outputDirectory",
	"summary",
	"project.artifactId",
	"project.version",
	"project.buildTool",
	"project.baseDirectory",
	"project.buildDirectory",
	"build.strategy",
	"build.buildRecreate",
	"build.forcePull",
	"build.imagePullPolicy",
	"build.namespace",
	"build.retries",
	"build.skipTag",
	"build.clusterContext",
	"build.buildpacksBuilder",
	"pullRegistry.registry",
	"pushRegistry.registry",
	"pushRegistry.skipExtendedAuth",
	"resource.namespace",
	"resource.manifest",
	"resource.fragmentsDir",
	"resource.sidecar",
	"helm.chart",
	"helm.version",
	"helm.repository",
	"helm.outputDir",
}

// ConfigManager loads and caches the project configuration.
type ConfigManager struct {
	Viper  *viper.Viper
	Writer io.Writer
	Config *v1alpha1.Project

	overrideKeys    []string
	flags           map[string]*pflag.Flag
	configLoaded    bool
	configFileFound bool
}

// NewConfigManager returns a ConfigManager reading configFile, or kubepack.{yaml,yml,json}
// from the working directory when configFile is empty.
func NewConfigManager(writer io.Writer, configFile string) *ConfigManager {
	return &ConfigManager{
		Viper:        InitializeViper(configFile),
		Writer:       writer,
		Config:       &v1alpha1.Project{},
		overrideKeys: slices.Clone(envKeys),
		flags:        map[string]*pflag.Flag{},
	}
}

// InitializeViper returns a Viper instance wired for config file and environment lookup.
func InitializeViper(configFile string) *viper.Viper {
	viperInstance := viper.New()

	if configFile != "" {
		viperInstance.SetConfigFile(configFile)
	} else {
		viperInstance.SetConfigName(v1alpha1.DefaultConfigFileName)
		viperInstance.AddConfigPath(".")
	}

	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	for _, key := range envKeys {
		_ = viperInstance.BindEnv(key)
	}

	return viperInstance
}

// BindFlags binds flag names to config keys. Only flags the user changed
// override file and environment values.
func (m *ConfigManager) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flagName, key := range keys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}

		err := m.Viper.BindPFlag(key, flag)
		if err != nil {
			return fmt.Errorf("bind flag %s: %w", flagName, err)
		}

		m.flags[key] = flag

		if !slices.Contains(m.overrideKeys, key) {
			m.overrideKeys = append(m.overrideKeys, key)
		}
	}

	return nil
}

// ConfigFileFound reports whether Load read a config file.
func (m *ConfigManager) ConfigFileFound() bool {
	return m.configFileFound
}

// Load reads, defaults and validates the configuration. Later calls return
// the cached result.
//
// The file is decoded with its keys intact; Viper lowercases map keys, which
// would corrupt environment variable and label names. Viper only supplies the
// scalar environment and flag overrides.
func (m *ConfigManager) Load() (*v1alpha1.Project, error) {
	if m.configLoaded {
		return m.Config, nil
	}

	project := &v1alpha1.Project{}

	err := m.readConfig(project)
	if err != nil {
		return nil, err
	}

	err = m.applyOverrides(project)
	if err != nil {
		return nil, err
	}

	err = normalize(project)
	if err != nil {
		return nil, err
	}

	project.SetDefaults()

	err = validate(project)
	if err != nil {
		return nil, err
	}

	m.Config = project
	m.configLoaded = true

	return project, nil
}

func (m *ConfigManager) readConfig(project *v1alpha1.Project) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		notify.Debugf(m.Writer, "no %s config found, using defaults", v1alpha1.DefaultConfigFileName)

		return nil
	}

	path := m.Viper.ConfigFileUsed()

	//nolint:gosec // path is the config file the user pointed at
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.UnmarshalStrict(data, project)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	m.configFileFound = true
	notify.Infof(m.Writer, "using config %s", path)

	return nil
}

// applyOverrides decodes the environment and flag values Viper holds on top
// of project.
func (m *ConfigManager) applyOverrides(project *v1alpha1.Project) error {
	overrides := map[string]any{}

	for _, key := range m.overrideKeys {
		if !m.isOverridden(key) {
			continue
		}

		setNested(overrides, strings.Split(key, "."), m.Viper.Get(key))
	}

	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           project,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	err = decoder.Decode(overrides)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// isOverridden reports whether key comes from the environment or a changed flag.
func (m *ConfigManager) isOverridden(key string) bool {
	flag, ok := m.flags[key]
	if ok && flag.Changed {
		return true
	}

	_, ok = os.LookupEnv(EnvName(key))

	return ok
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setNested(target map[string]any, path []string, value any) {
	for _, segment := range path[:len(path)-1] {
		next, ok := target[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[segment] = next
		}

		target = next
	}

	target[path[len(path)-1]] = value
}

// normalize canonicalizes enum values written in any case.
func normalize(project *v1alpha1.Project) error {
	enums := []pflag.Value{&project.Build.Strategy, &project.Build.RecreateMode}

	if project.Build.PullPolicy != "" {
		enums = append(enums, &project.Build.PullPolicy)
	}

	if project.Java.BuildTool != "" {
		enums = append(enums, &project.Java.BuildTool)
	}

	for _, enum := range enums {
		err := enum.Set(enum.String())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return nil
}

func validate(project *v1alpha1.Project) error {
	var errs []error

	for index := range project.Images {
		err := project.Images[index].Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("images[%d]: %w", index, err))
		}
	}

	if project.Build.Retries < 0 {
		errs = append(errs, fmt.Errorf("build.retries must not be negative, got %d", project.Build.Retries))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}
