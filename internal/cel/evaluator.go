package cel

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// RootVariable is the name records are bound to inside expressions.
const RootVariable = "_"

var (
	envOnce sync.Once
	envErr  error
	sharedE *cel.Env

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// Program is a compiled expression evaluated against one record at a time.
type Program struct {
	expr string
	prg  cel.Program
}

// Environment returns the shared CEL environment with the standard
// extensions loaded. It is built once.
func Environment() (*cel.Env, error) {
	envOnce.Do(func() {
		sharedE, envErr = cel.NewEnv(
			cel.Variable(RootVariable, cel.DynType),
			celext.Strings(),
			celext.Encoders(),
			celext.Lists(),
			celext.Math(),
		)
		if envErr != nil {
			envErr = fmt.Errorf("failed to create CEL environment: %w", envErr)
		}
	})
	return sharedE, envErr
}

// Compile parses and checks expr. The expression reaches the record through
// "_", e.g. `_.nom + " " + _.job`.
func Compile(expr string) (*Program, error) {
	env, err := Environment()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Program) String() string { return p.expr }

// Eval evaluates the program with data bound to "_" and converts the result
// to Go types.
func (p *Program) Eval(data any) (any, error) {
	out, _, err := p.prg.Eval(map[string]any{RootVariable: data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(out), nil
}

// EvalString evaluates the program and formats the result as display text.
func (p *Program) EvalString(data any) (string, error) {
	v, err := p.Eval(data)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(s), nil
	}
}

// IsExpression reports whether field must be compiled rather than looked up
// by name. Bare identifiers such as "nom" or "first-name" are plain fields.
func IsExpression(field string) bool {
	return !identPattern.MatchString(field)
}

// ToGo converts CEL values to native Go types recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	inner := valuer.Value()
	switch in := inner.(type) {
	case []ref.Val:
		out := make([]any, len(in))
		for i, elem := range in {
			out[i] = ToGo(elem)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(in))
		for k, v := range in {
			out[fmt.Sprint(ToGo(k))] = ToGo(v)
		}
		return out
	default:
		return inner
	}
}
