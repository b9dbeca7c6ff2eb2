package di

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Injector is the dependency container handed to modules and handlers.
type Injector = do.Injector

// Module registers dependencies on an Injector.
type Module func(Injector) error

// Runtime builds a fresh Injector from its modules for every invocation.
type Runtime struct {
	modules []Module
}

// New returns a Runtime registering modules in order.
func New(modules ...Module) *Runtime {
	return &Runtime{modules: modules}
}

// Invoke runs the base modules, then extra, then handler on a new Injector
// that is shut down afterwards. Nil modules are skipped.
func (r *Runtime) Invoke(handler func(Injector) error, extra ...Module) error {
	injector := do.New()
	defer func() { _ = injector.Shutdown() }()

	for _, module := range append(append([]Module{}, r.modules...), extra...) {
		if module == nil {
			continue
		}

		err := module(injector)
		if err != nil {
			return err
		}
	}

	return handler(injector)
}

// RunEWithRuntime adapts a handler into a cobra RunE executed by runtime.
func RunEWithRuntime(
	runtime *Runtime,
	handler func(cmd *cobra.Command, injector Injector) error,
) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return runtime.Invoke(func(injector Injector) error {
			return handler(cmd, injector)
		})
	}
}
