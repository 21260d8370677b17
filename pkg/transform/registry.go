package transform

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
)

// CompileFunc builds an executable field operation from one descriptor.
// It returns a configuration error when required descriptor fields are
// absent or malformed.
type CompileFunc func(step *config.Step) (FieldOperation, error)

// KindInfo describes a registered operation kind for listing commands.
type KindInfo struct {
	Name           string
	Description    string
	RequiredFields []string
}

// Registry maps operation kind names to their compile functions. The set
// of kinds is closed and known at build time; operation packages register
// themselves from init.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]registration
}

type registration struct {
	compile CompileFunc
	info    KindInfo
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]registration)}
}

// Register adds an operation kind to the registry. Registering the same
// kind twice is a configuration error.
func (r *Registry) Register(info KindInfo, compile CompileFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[info.Name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "operation kind %s already registered", info.Name)
	}
	r.kinds[info.Name] = registration{compile: compile, info: info}
	return nil
}

// Compile builds the field operation for one descriptor. An unrecognized
// kind is a configuration error, raised here and never at row time.
func (r *Registry) Compile(step *config.Step) (FieldOperation, error) {
	r.mu.RLock()
	reg, exists := r.kinds[step.Operation]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown operation kind %q", step.Operation)
	}

	op, err := reg.compile(step)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithDetail("operation", step.Operation)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to compile operation").
			WithDetail("operation", step.Operation)
	}
	return op, nil
}

// CompileSpec compiles every step of a validated spec in declared order and
// verifies the compiled operations cover target_columns exactly: every
// target column written once, no duplicates, no writes outside the schema.
func (r *Registry) CompileSpec(spec *config.Spec) ([]FieldOperation, error) {
	ops := make([]FieldOperation, 0, len(spec.Transformations))
	for i := range spec.Transformations {
		op, err := r.Compile(&spec.Transformations[i])
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				return nil, e.WithDetail("step", i)
			}
			return nil, err
		}
		ops = append(ops, op)
	}

	inSchema := make(map[string]bool, len(spec.TargetColumns))
	for _, col := range spec.TargetColumns {
		inSchema[col] = true
	}
	written := make(map[string]bool, len(ops))
	for _, op := range ops {
		col := op.TargetColumn()
		if !inSchema[col] {
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"operation writes column %q which is not in target_columns", col)
		}
		if written[col] {
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"multiple operations write target column %q", col)
		}
		written[col] = true
	}
	for _, col := range spec.TargetColumns {
		if !written[col] {
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"no operation writes target column %q", col)
		}
	}

	return ops, nil
}

// Kinds returns the registered operation kinds sorted by name.
func (r *Registry) Kinds() []KindInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]KindInfo, 0, len(r.kinds))
	for _, reg := range r.kinds {
		infos = append(infos, reg.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Global registry functions

// Register adds an operation kind to the global registry.
func Register(info KindInfo, compile CompileFunc) error {
	return globalRegistry.Register(info, compile)
}

// Compile builds a field operation using the global registry.
func Compile(step *config.Step) (FieldOperation, error) {
	return globalRegistry.Compile(step)
}

// CompileSpec compiles a spec's operations using the global registry.
func CompileSpec(spec *config.Spec) ([]FieldOperation, error) {
	return globalRegistry.CompileSpec(spec)
}

// Kinds returns the operation kinds registered globally.
func Kinds() []KindInfo {
	return globalRegistry.Kinds()
}

// mustRegister backs the init-time registrations of the built-in kinds.
func mustRegister(info KindInfo, compile CompileFunc) {
	if err := Register(info, compile); err != nil {
		panic(err)
	}
}
