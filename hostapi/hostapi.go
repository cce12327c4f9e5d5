package hostapi

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/native-sync/errors"
)

// Host is the interface for struct-based host modules.
// All exported methods except Namespace and the table-management surface
// (Subscribe, Close) are registered as host functions.
type Host interface {
	// Namespace returns the host interface name
	// (e.g., "native:sync/threads@1.0.0").
	Namespace() string
}

// Func is a registered host function.
type Func struct {
	fn       reflect.Value
	takesCtx bool
}

// Registry maps namespace and kebab-case function name to a callable.
// It is the string-keyed surface an embedding host (script binding, FFI
// layer) dispatches through.
type Registry struct {
	funcs map[string]map[string]*Func
	mu    sync.RWMutex
}

// NewRegistry creates an empty host function registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]map[string]*Func),
	}
}

// management methods present on every primitive host that are not part
// of the dispatchable operation surface.
var skipMethods = map[string]bool{
	"Namespace": true,
	"Subscribe": true,
	"Close":     true,
}

// RegisterHost reflects over h's exported methods and registers each one
// under h's namespace with its kebab-case name (CreateThread ->
// create-thread).
func (r *Registry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]*Func)
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || skipMethods[method.Name] {
			continue
		}

		bound := rv.Method(i)
		name := toKebabCase(method.Name)
		r.funcs[ns][name] = &Func{
			fn:       bound,
			takesCtx: takesContext(bound.Type()),
		}
		Logger().Debug("host function registered",
			zap.String("namespace", ns),
			zap.String("name", name))
	}

	return nil
}

// RegisterFunc registers a single function under an explicit name.
func (r *Registry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Detail("handler %s#%s must be a function", namespace, name).
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]*Func)
	}
	r.funcs[namespace][name] = &Func{
		fn:       rv,
		takesCtx: takesContext(rv.Type()),
	}
	return nil
}

// Call invokes namespace#name with the given arguments and returns its
// results. If the function's first parameter is a context.Context, ctx
// is supplied implicitly. Numeric arguments are converted to the
// parameter type when possible, so raw uint64 handles from a foreign
// boundary dispatch cleanly onto typed handle parameters.
func (r *Registry) Call(ctx context.Context, namespace, name string, args ...any) ([]any, error) {
	r.mu.RLock()
	f := r.funcs[namespace][name]
	r.mu.RUnlock()

	if f == nil {
		return nil, errors.New(errors.PhaseHost, errors.KindNotFound).
			Detail("no host function %s#%s", namespace, name).
			Build()
	}

	ft := f.fn.Type()
	in := make([]reflect.Value, 0, ft.NumIn())
	argIdx := 0

	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if i == 0 && f.takesCtx {
			in = append(in, reflect.ValueOf(ctx))
			continue
		}
		if argIdx >= len(args) {
			return nil, errors.New(errors.PhaseHost, errors.KindValidation).
				Detail("%s#%s: want %d arguments, got %d", namespace, name, ft.NumIn()-boolToInt(f.takesCtx), len(args)).
				Build()
		}

		av := reflect.ValueOf(args[argIdx])
		argIdx++

		switch {
		case !av.IsValid():
			// Untyped nil for a nilable parameter.
			in = append(in, reflect.Zero(pt))
		case av.Type().AssignableTo(pt):
			in = append(in, av)
		case av.Type().ConvertibleTo(pt) && isScalar(av.Kind()) && isScalar(pt.Kind()):
			in = append(in, av.Convert(pt))
		default:
			return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				Detail("%s#%s: argument %d is %s, want %s", namespace, name, argIdx-1, av.Type(), pt).
				Build()
		}
	}

	if argIdx != len(args) {
		return nil, errors.New(errors.PhaseHost, errors.KindValidation).
			Detail("%s#%s: want %d arguments, got %d", namespace, name, ft.NumIn()-boolToInt(f.takesCtx), len(args)).
			Build()
	}

	out := f.fn.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// Namespaces returns the registered namespaces.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	return out
}

// Functions returns the function names registered under a namespace.
func (r *Registry) Functions(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs[namespace]))
	for name := range r.funcs[namespace] {
		out = append(out, name)
	}
	return out
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

func takesContext(ft reflect.Type) bool {
	return ft.NumIn() > 0 && ft.In(0) == ctxType
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
