package params

import (
	"strings"

	"github.com/samber/lo"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/semantic"
)

// SwitchNotPresent is the default value of an unsupplied switch parameter.
var SwitchNotPresent = runtime.False

// LazyDefaultValue defers a non-constant parameter default: the expression
// is kept alongside its compiled evaluator and runs in the caller's session
// state when first needed.
type LazyDefaultValue struct {
	Expression ast.Expression
	Evaluate   func(fc *runtime.FunctionContext) (runtime.Value, error)
}

// RuntimeDefinedParameter is the runtime descriptor of one formal parameter.
type RuntimeDefinedParameter struct {
	Name       string
	StaticType *runtime.TypeRef
	Attributes []any

	// DefaultValue holds the compile-time constant default; non-constant
	// defaults are carried in LazyDefault instead.
	DefaultValue runtime.Value
	LazyDefault  *LazyDefaultValue

	// Position is the automatic or declared binding position;
	// UnsetPosition for named-only parameters.
	Position int

	ParameterSetName string
	Mandatory        bool
	IsSwitch         bool
}

// ParameterMetadata is the materialized parameter surface of a script block.
type ParameterMetadata struct {
	Parameters []*RuntimeDefinedParameter

	// UsesCmdletBinding is implied by any parameter attribute being present
	// or by an explicit [CmdletBinding()].
	UsesCmdletBinding bool

	// CustomParameterSet records that some parameter declared an explicit
	// Position or a non-default ParameterSetName, which disables automatic
	// position assignment.
	CustomParameterSet bool
}

// Get returns the descriptor for name, or nil.
func (pm *ParameterMetadata) Get(name string) *RuntimeDefinedParameter {
	for _, p := range pm.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// MaterializeParameters converts the parameter AST of a script block into
// runtime descriptors. compileDefault supplies the evaluator for lazy
// (non-constant) default values.
func MaterializeParameters(blockAttributes []*ast.Attribute, parameters []*ast.Parameter, compileDefault func(ast.Expression) func(*runtime.FunctionContext) (runtime.Value, error)) (*ParameterMetadata, error) {
	out := &ParameterMetadata{}

	for _, a := range blockAttributes {
		instance, err := MaterializeAttribute(a)
		if err != nil {
			return nil, err
		}
		if _, ok := instance.(*CmdletBindingAttribute); ok {
			out.UsesCmdletBinding = true
		}
	}

	for _, p := range parameters {
		rdp, err := materializeParameter(p, compileDefault)
		if err != nil {
			return nil, err
		}
		out.Parameters = append(out.Parameters, rdp)

		for _, attr := range rdp.Attributes {
			pa, ok := attr.(*ParameterAttribute)
			if !ok {
				continue
			}
			out.UsesCmdletBinding = true
			if pa.Position != UnsetPosition || pa.ParameterSetName != AllParameterSets {
				out.CustomParameterSet = true
			}
		}
	}

	if !out.CustomParameterSet {
		assignAutomaticPositions(out.Parameters)
	}
	return out, nil
}

func materializeParameter(p *ast.Parameter, compileDefault func(ast.Expression) func(*runtime.FunctionContext) (runtime.Value, error)) (*RuntimeDefinedParameter, error) {
	rdp := &RuntimeDefinedParameter{
		Name:             p.Name.Path.Name,
		Position:         UnsetPosition,
		ParameterSetName: AllParameterSets,
	}

	if t := p.StaticType(); t != nil {
		if ref, ok := runtime.LookupType(t.TypeName.FullName()); ok {
			rdp.StaticType = ref
		}
		rdp.IsSwitch = strings.EqualFold(t.TypeName.Name, "switch")
	}

	for _, attr := range p.Attributes {
		a, ok := attr.(*ast.Attribute)
		if !ok {
			continue
		}
		instance, err := MaterializeAttribute(a)
		if err != nil {
			return nil, err
		}
		rdp.Attributes = append(rdp.Attributes, instance)
		if pa, ok := instance.(*ParameterAttribute); ok {
			rdp.Mandatory = pa.Mandatory
			if pa.Position != UnsetPosition {
				rdp.Position = pa.Position
			}
			rdp.ParameterSetName = pa.ParameterSetName
		}
	}

	if p.DefaultValue != nil {
		if v, ok := semantic.ConstantValueOf(p.DefaultValue); ok {
			rdp.DefaultValue = runtime.FromGo(v)
		} else {
			rdp.LazyDefault = &LazyDefaultValue{
				Expression: p.DefaultValue,
				Evaluate:   compileDefault(p.DefaultValue),
			}
		}
		return rdp, nil
	}

	rdp.DefaultValue = implicitDefault(rdp)
	return rdp, nil
}

// implicitDefault chooses the default of a parameter with no explicit one:
// empty string for strings, false for booleans, not-present for switches,
// zero for numeric primitives, null for reference types.
func implicitDefault(rdp *RuntimeDefinedParameter) runtime.Value {
	if rdp.IsSwitch {
		return SwitchNotPresent
	}
	if rdp.StaticType == nil {
		return runtime.Null
	}
	switch rdp.StaticType {
	case runtime.TypeString:
		return runtime.Str("")
	case runtime.TypeBool:
		return runtime.False
	case runtime.TypeInt:
		return runtime.Int(0)
	case runtime.TypeDouble:
		return runtime.Float(0)
	default:
		return runtime.Null
	}
}

// assignAutomaticPositions numbers positional parameters in declaration
// order, skipping switch parameters.
func assignAutomaticPositions(parameters []*RuntimeDefinedParameter) {
	positional := lo.Filter(parameters, func(p *RuntimeDefinedParameter, _ int) bool {
		return !p.IsSwitch
	})
	for i, p := range positional {
		p.Position = i
	}
}
