// Package params converts parameter and attribute AST into runtime parameter
// descriptors and materialized attribute instances.
package params

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/semantic"
	"github.com/cwbudde/go-psh/internal/source"
)

// ParameterAttribute is the materialized [Parameter(...)] attribute.
type ParameterAttribute struct {
	Mandatory                       bool
	Position                        int
	ParameterSetName                string
	ValueFromPipeline               bool
	ValueFromPipelineByPropertyName bool
	ValueFromRemainingArguments     bool
	HelpMessage                     string
}

// AllParameterSets is the default set name of a parameter attribute.
const AllParameterSets = "__AllParameterSets"

// UnsetPosition marks a parameter with no explicit position.
const UnsetPosition = -2147483648

// CmdletBindingAttribute is the materialized [CmdletBinding(...)] attribute.
type CmdletBindingAttribute struct {
	SupportsShouldProcess   bool
	ConfirmImpact           string
	DefaultParameterSetName string
	PositionalBinding       bool
}

// OutputTypeAttribute is the materialized [OutputType(...)] attribute.
type OutputTypeAttribute struct {
	Types []string
}

// AliasAttribute is the materialized [Alias(...)] attribute.
type AliasAttribute struct {
	AliasNames []string
}

// ValidateSetAttribute is the materialized [ValidateSet(...)] attribute.
type ValidateSetAttribute struct {
	ValidValues []string
	IgnoreCase  bool
}

// ValidateNotNullAttribute is the materialized [ValidateNotNull()] attribute.
type ValidateNotNullAttribute struct{}

// ValidateNotNullOrEmptyAttribute is the materialized
// [ValidateNotNullOrEmpty()] attribute.
type ValidateNotNullOrEmptyAttribute struct{}

// DebuggerHiddenAttribute is the materialized [DebuggerHidden()] attribute.
type DebuggerHiddenAttribute struct{}

// CustomAttribute is the reflective fallback for attributes outside the
// fast-path set.
type CustomAttribute struct {
	TypeName       string
	PositionalArgs []any
	NamedArgs      map[string]any
}

// attributeBuilder materializes one attribute kind from resolved constant
// arguments.
type attributeBuilder func(extent source.Extent, positional []any, named map[string]any) (any, error)

// builderCache guards the lazily shared fast-path builder table.
var (
	builderCacheMu sync.Mutex
	builderCache   map[string]attributeBuilder
)

func builders() map[string]attributeBuilder {
	builderCacheMu.Lock()
	defer builderCacheMu.Unlock()
	if builderCache != nil {
		return builderCache
	}
	builderCache = map[string]attributeBuilder{
		"parameter":       buildParameterAttribute,
		"cmdletbinding":   buildCmdletBindingAttribute,
		"outputtype":      buildOutputTypeAttribute,
		"alias":           buildAliasAttribute,
		"validateset":     buildValidateSetAttribute,
		"debuggerhidden":  func(source.Extent, []any, map[string]any) (any, error) { return &DebuggerHiddenAttribute{}, nil },
		"validatenotnull": func(source.Extent, []any, map[string]any) (any, error) { return &ValidateNotNullAttribute{}, nil },
		"validatenotnullorempty": func(source.Extent, []any, map[string]any) (any, error) {
			return &ValidateNotNullOrEmptyAttribute{}, nil
		},
	}
	return builderCache
}

func constructionError(extent source.Extent, name string, err error) error {
	return errors.NewWrappedRuntimeError(extent, errors.IDExceptionConstructingAttribute,
		fmt.Errorf("error constructing attribute %q: %w", name, err))
}

// MaterializeAttribute builds the runtime instance of an attribute AST node.
// Positional and named arguments are resolved at compile time by the
// constant-value visitor; each is coerced to the builder's parameter type
// through a conversion call, and a conversion failure surfaces as an
// attribute-construction error.
func MaterializeAttribute(a *ast.Attribute) (any, error) {
	positional := make([]any, len(a.PositionalArguments))
	for i, arg := range a.PositionalArguments {
		v, ok := semantic.ConstantValueOf(arg)
		if !ok {
			if sb, isBlock := arg.(*ast.ScriptBlockExpression); isBlock {
				v = sb
				ok = true
			}
		}
		if !ok {
			return nil, errors.NewRuntimeError(a.Extent(), errors.IDParameterAttributeArgNeedsConstant,
				"attribute arguments must be constants")
		}
		positional[i] = v
	}

	named := make(map[string]any, len(a.NamedArguments))
	for _, na := range a.NamedArguments {
		if na.ExpressionOmitted || na.Argument == nil {
			named[strings.ToLower(na.ArgumentName)] = true
			continue
		}
		v, ok := semantic.ConstantValueOf(na.Argument)
		if !ok {
			return nil, errors.NewRuntimeError(na.Extent(), errors.IDParameterAttributeArgNeedsConstant,
				"attribute arguments must be constants")
		}
		named[strings.ToLower(na.ArgumentName)] = v
	}

	if builder, ok := builders()[strings.ToLower(a.TypeName.Name)]; ok {
		return builder(a.Extent(), positional, named)
	}

	return &CustomAttribute{
		TypeName:       a.TypeName.FullName(),
		PositionalArgs: positional,
		NamedArgs:      named,
	}, nil
}

func buildParameterAttribute(extent source.Extent, positional []any, named map[string]any) (any, error) {
	if len(positional) > 0 {
		return nil, constructionError(extent, "Parameter",
			fmt.Errorf("the Parameter attribute takes no positional arguments"))
	}
	out := &ParameterAttribute{Position: UnsetPosition, ParameterSetName: AllParameterSets}
	for name, v := range named {
		var err error
		switch name {
		case "mandatory":
			out.Mandatory, err = cast.ToBoolE(v)
		case "position":
			out.Position, err = cast.ToIntE(v)
		case "parametersetname":
			out.ParameterSetName, err = cast.ToStringE(v)
		case "valuefrompipeline":
			out.ValueFromPipeline, err = cast.ToBoolE(v)
		case "valuefrompipelinebypropertyname":
			out.ValueFromPipelineByPropertyName, err = cast.ToBoolE(v)
		case "valuefromremainingarguments":
			out.ValueFromRemainingArguments, err = cast.ToBoolE(v)
		case "helpmessage":
			out.HelpMessage, err = cast.ToStringE(v)
		}
		if err != nil {
			return nil, constructionError(extent, "Parameter", err)
		}
	}
	return out, nil
}

func buildCmdletBindingAttribute(extent source.Extent, _ []any, named map[string]any) (any, error) {
	out := &CmdletBindingAttribute{PositionalBinding: true}
	for name, v := range named {
		var err error
		switch name {
		case "supportsshouldprocess":
			out.SupportsShouldProcess, err = cast.ToBoolE(v)
		case "confirmimpact":
			out.ConfirmImpact, err = cast.ToStringE(v)
		case "defaultparametersetname":
			out.DefaultParameterSetName, err = cast.ToStringE(v)
		case "positionalbinding":
			out.PositionalBinding, err = cast.ToBoolE(v)
		}
		if err != nil {
			return nil, constructionError(extent, "CmdletBinding", err)
		}
	}
	return out, nil
}

func buildOutputTypeAttribute(extent source.Extent, positional []any, _ map[string]any) (any, error) {
	types, err := toStringList(positional)
	if err != nil {
		return nil, constructionError(extent, "OutputType", err)
	}
	return &OutputTypeAttribute{Types: types}, nil
}

func buildAliasAttribute(extent source.Extent, positional []any, _ map[string]any) (any, error) {
	names, err := toStringList(positional)
	if err != nil {
		return nil, constructionError(extent, "Alias", err)
	}
	return &AliasAttribute{AliasNames: names}, nil
}

func buildValidateSetAttribute(extent source.Extent, positional []any, named map[string]any) (any, error) {
	values, err := toStringList(positional)
	if err != nil {
		return nil, constructionError(extent, "ValidateSet", err)
	}
	out := &ValidateSetAttribute{ValidValues: values, IgnoreCase: true}
	if v, ok := named["ignorecase"]; ok {
		out.IgnoreCase, err = cast.ToBoolE(v)
		if err != nil {
			return nil, constructionError(extent, "ValidateSet", err)
		}
	}
	return out, nil
}

func toStringList(args []any) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if list, ok := a.([]any); ok {
			nested, err := toStringList(list)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		s, err := cast.ToStringE(a)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
