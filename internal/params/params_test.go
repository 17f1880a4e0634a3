package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
)

func typed(typeName, paramName string) *ast.Parameter {
	tc := ast.NewTypeConstraint(ast.T("["+typeName+"]"), &ast.TypeName{Name: typeName})
	return ast.NewParameter(ast.T("$"+paramName), ast.Var(paramName), []ast.AttributeBase{tc}, nil)
}

func noDefaultCompiler(expr ast.Expression) func(*runtime.FunctionContext) (runtime.Value, error) {
	return func(*runtime.FunctionContext) (runtime.Value, error) {
		return runtime.Null, nil
	}
}

func TestImplicitDefaults(t *testing.T) {
	metadata, err := MaterializeParameters(nil, []*ast.Parameter{
		typed("string", "s"),
		typed("bool", "b"),
		typed("int", "n"),
		typed("double", "d"),
		typed("switch", "sw"),
		ast.NewParameter(ast.T("$untyped"), ast.Var("untyped"), nil, nil),
	}, noDefaultCompiler)
	require.NoError(t, err)

	assert.Equal(t, runtime.Str(""), metadata.Get("s").DefaultValue)
	assert.Equal(t, runtime.False, metadata.Get("b").DefaultValue)
	assert.Equal(t, runtime.Int(0), metadata.Get("n").DefaultValue)
	assert.Equal(t, runtime.Float(0).Value, metadata.Get("d").DefaultValue.(*runtime.FloatValue).Value)
	assert.Equal(t, SwitchNotPresent, metadata.Get("sw").DefaultValue)
	assert.True(t, metadata.Get("sw").IsSwitch)
	assert.Equal(t, runtime.Null, metadata.Get("untyped").DefaultValue)
}

func TestConstantDefaultStoredEagerly(t *testing.T) {
	p := ast.NewParameter(ast.T("$n = 5"), ast.Var("n"), nil, ast.Const(5))
	metadata, err := MaterializeParameters(nil, []*ast.Parameter{p}, noDefaultCompiler)
	require.NoError(t, err)
	rdp := metadata.Get("n")
	assert.Equal(t, runtime.Int(5), rdp.DefaultValue)
	assert.Nil(t, rdp.LazyDefault)
}

func TestNonConstantDefaultIsLazy(t *testing.T) {
	p := ast.NewParameter(ast.T("$n = $x"), ast.Var("n"), nil, ast.Var("x"))
	metadata, err := MaterializeParameters(nil, []*ast.Parameter{p}, noDefaultCompiler)
	require.NoError(t, err)
	rdp := metadata.Get("n")
	require.NotNil(t, rdp.LazyDefault)
	assert.NotNil(t, rdp.LazyDefault.Expression)
	assert.NotNil(t, rdp.LazyDefault.Evaluate)
}

func TestAutomaticPositionsSkipSwitches(t *testing.T) {
	metadata, err := MaterializeParameters(nil, []*ast.Parameter{
		typed("string", "first"),
		typed("switch", "flag"),
		typed("string", "second"),
	}, noDefaultCompiler)
	require.NoError(t, err)

	assert.Equal(t, 0, metadata.Get("first").Position)
	assert.Equal(t, UnsetPosition, metadata.Get("flag").Position)
	assert.Equal(t, 1, metadata.Get("second").Position)
	assert.False(t, metadata.CustomParameterSet)
}

func TestExplicitPositionDisablesAutomaticNumbering(t *testing.T) {
	attr := ast.NewAttribute(ast.T("[Parameter(Position=3)]"), &ast.TypeName{Name: "Parameter"},
		nil, []*ast.NamedAttributeArgument{
			ast.NewNamedAttributeArgument(ast.T("Position=3"), "Position", ast.Const(3), false),
		})
	p := ast.NewParameter(ast.T("$v"), ast.Var("v"), []ast.AttributeBase{attr}, nil)
	other := ast.NewParameter(ast.T("$w"), ast.Var("w"), nil, nil)

	metadata, err := MaterializeParameters(nil, []*ast.Parameter{p, other}, noDefaultCompiler)
	require.NoError(t, err)

	assert.True(t, metadata.CustomParameterSet)
	assert.True(t, metadata.UsesCmdletBinding, "any parameter attribute implies cmdlet binding")
	assert.Equal(t, 3, metadata.Get("v").Position)
	assert.Equal(t, UnsetPosition, metadata.Get("w").Position, "automatic numbering is disabled")
}

func TestCmdletBindingBlockAttribute(t *testing.T) {
	attr := ast.NewAttribute(ast.T("[CmdletBinding()]"), &ast.TypeName{Name: "CmdletBinding"}, nil, nil)
	metadata, err := MaterializeParameters([]*ast.Attribute{attr}, nil, noDefaultCompiler)
	require.NoError(t, err)
	assert.True(t, metadata.UsesCmdletBinding)
}

func TestValidateSetMaterialization(t *testing.T) {
	attr := ast.NewAttribute(ast.T(`[ValidateSet("a","b")]`), &ast.TypeName{Name: "ValidateSet"},
		[]ast.Expression{ast.Text("a"), ast.Text("b")}, nil)
	instance, err := MaterializeAttribute(attr)
	require.NoError(t, err)
	vs := instance.(*ValidateSetAttribute)
	assert.Equal(t, []string{"a", "b"}, vs.ValidValues)
	assert.True(t, vs.IgnoreCase)
}

func TestCustomAttributeFallback(t *testing.T) {
	attr := ast.NewAttribute(ast.T("[MyThing(1)]"), &ast.TypeName{Name: "MyThing"},
		[]ast.Expression{ast.Const(1)}, []*ast.NamedAttributeArgument{
			ast.NewNamedAttributeArgument(ast.T("Flag"), "Flag", nil, true),
		})
	instance, err := MaterializeAttribute(attr)
	require.NoError(t, err)
	custom := instance.(*CustomAttribute)
	assert.Equal(t, "MyThing", custom.TypeName)
	assert.Equal(t, []any{1}, custom.PositionalArgs)
	assert.Equal(t, true, custom.NamedArgs["flag"])
}

func TestAttributeConstructionFailure(t *testing.T) {
	attr := ast.NewAttribute(ast.T(`[Parameter(Position="nope")]`), &ast.TypeName{Name: "Parameter"},
		nil, []*ast.NamedAttributeArgument{
			ast.NewNamedAttributeArgument(ast.T(`Position="nope"`), "Position", ast.Text("nope"), false),
		})
	_, err := MaterializeAttribute(attr)
	require.Error(t, err)
	re, ok := err.(*errors.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, errors.IDExceptionConstructingAttribute, re.ID)
}

func TestParameterAttributeRejectsPositionalArguments(t *testing.T) {
	attr := ast.NewAttribute(ast.T("[Parameter(1)]"), &ast.TypeName{Name: "Parameter"},
		[]ast.Expression{ast.Const(1)}, nil)
	_, err := MaterializeAttribute(attr)
	require.Error(t, err)
}
