package di_test

import (
	"errors"
	"testing"

	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errHandler = errors.New("handler error")
	errModule  = errors.New("module error")
)

type registry struct{ host string }

func provideRegistry(host string) di.Module {
	return func(i di.Injector) error {
		do.Provide(i, func(di.Injector) (*registry, error) {
			return &registry{host: host}, nil
		})

		return nil
	}
}

func TestRuntime_Invoke_ModuleOrder(t *testing.T) {
	t.Parallel()

	var order []string

	step := func(name string) di.Module {
		return func(di.Injector) error {
			order = append(order, name)

			return nil
		}
	}

	err := di.New(step("base"), nil).Invoke(func(di.Injector) error {
		order = append(order, "handler")

		return nil
	}, nil, step("extra"))

	require.NoError(t, err)
	assert.Equal(t, []string{"base", "extra", "handler"}, order)
}

func TestRuntime_Invoke_Errors(t *testing.T) {
	t.Parallel()

	err := di.New(func(di.Injector) error { return errModule }).Invoke(func(di.Injector) error {
		t.Fatal("handler must not run when a module fails")

		return nil
	})
	require.ErrorIs(t, err, errModule)

	err = di.New().Invoke(func(di.Injector) error { return errHandler })
	require.ErrorIs(t, err, errHandler)
}

func TestRuntime_Invoke_FreshInjectorPerCall(t *testing.T) {
	t.Parallel()

	runtime := di.New(provideRegistry("ghcr.io"))

	var seen []*registry

	for range 2 {
		err := runtime.Invoke(func(i di.Injector) error {
			resolved, err := do.Invoke[*registry](i)
			seen = append(seen, resolved)

			return err
		})
		require.NoError(t, err)
	}

	require.Len(t, seen, 2)
	assert.Equal(t, "ghcr.io", seen[0].host)
	assert.NotSame(t, seen[0], seen[1])
}

func TestRuntime_Invoke_ExtraModuleOverrides(t *testing.T) {
	t.Parallel()

	override := func(i di.Injector) error {
		do.Override(i, func(di.Injector) (*registry, error) {
			return &registry{host: "localhost:5000"}, nil
		})

		return nil
	}

	err := di.New(provideRegistry("ghcr.io")).Invoke(func(i di.Injector) error {
		resolved, err := do.Invoke[*registry](i)
		if err != nil {
			return err
		}

		assert.Equal(t, "localhost:5000", resolved.host)

		return nil
	}, override)

	require.NoError(t, err)
}

func TestRunEWithRuntime(t *testing.T) {
	t.Parallel()

	runtime := di.New(provideRegistry("quay.io"))
	cmd := &cobra.Command{Use: "push"}

	var host string

	runE := di.RunEWithRuntime(runtime, func(got *cobra.Command, i di.Injector) error {
		assert.Same(t, cmd, got)

		resolved, err := do.Invoke[*registry](i)
		if err != nil {
			return err
		}

		host = resolved.host

		return nil
	})

	require.NoError(t, runE(cmd, nil))
	assert.Equal(t, "quay.io", host)

	failing := di.RunEWithRuntime(runtime, func(*cobra.Command, di.Injector) error { return errHandler })
	require.ErrorIs(t, failing(cmd, nil), errHandler)
}
