package functions

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Monotonicity describes how a single-argument function behaves over an
// interval of its argument.
type Monotonicity struct {
	IsMonotonic bool
	IsPositive  bool // non-decreasing when true, non-increasing otherwise
}

var (
	notMonotonic = Monotonicity{}
	increasing   = Monotonicity{IsMonotonic: true, IsPositive: true}
	decreasing   = Monotonicity{IsMonotonic: true, IsPositive: false}
)

// Function is a scalar function as seen by index analysis. Implementations
// are stateless and safe for concurrent use.
type Function interface {
	Name() string
	// HasMonotonicityInfo reports whether Monotonicity answers meaningfully.
	HasMonotonicityInfo() bool
	// Monotonicity reports behavior over [left, right] of argument type dt.
	// Either bound may be an infinity sentinel for an unbounded side.
	Monotonicity(dt types.DataType, left, right types.Field) Monotonicity
	// Apply evaluates the function on a single finite value.
	Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error)
	ReturnType(args []types.DataType) (types.DataType, error)
}

// ErrUnsupportedType is returned when a function is applied to an argument
// type it does not accept.
var ErrUnsupportedType = errors.New("unsupported argument type")

// Registry resolves functions by name, case-insensitively.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Function)}
}

// Register adds fn, replacing any function with the same name.
func (r *Registry) Register(fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[strings.ToLower(fn.Name())] = fn
}

// TryGet returns the function registered under name.
func (r *Registry) TryGet(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// Names lists registered function names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for _, fn := range r.funcs {
		out = append(out, fn.Name())
	}
	sort.Strings(out)
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry with all built-in functions.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, fn := range builtins() {
			defaultRegistry.Register(fn)
		}
	})
	return defaultRegistry
}

func builtins() []Function {
	return []Function{
		toYear, toMonth{}, toYYYYMM, toYYYYMMDD, toDate,
		toStartOfHour, toStartOfDay,
		negate{}, abs{}, toInt64{}, toFloat64{}, toString{},
		intHash32{}, intHash64{}, xxHash64{}, farmHash64{},
	}
}

func unaryArg(name string, args []types.DataType) (types.DataType, error) {
	if len(args) != 1 {
		return types.TypeUnknown, errors.Newf("%s requires 1 argument, got %d", name, len(args))
	}
	return args[0], nil
}
