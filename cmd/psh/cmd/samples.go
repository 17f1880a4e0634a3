package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
	"github.com/cwbudde/go-psh/pkg/psh"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Run the embedded sample programs end to end",
	Long: `Build a handful of sample programs as ASTs, push them through the
semantic checker and the compiler, and print their output. With no parser
in this module, the samples stand in for parsed scripts.`,
	RunE: runSamples,
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}

type sample struct {
	name  string
	text  string
	build func() *ast.ScriptBlockAst
}

func ext(text string) source.Extent { return source.Synthetic(text) }

var samples = []sample{
	{
		name: "pipeline-doubling",
		text: `1,2,3 | %{ $_ * 2 }`,
		build: func() *ast.ScriptBlockAst {
			inner := ast.NewBinaryExpression(ext("$_ * 2"),
				ast.NewVariableExpression(ext("$_"), ast.NewVariablePath("_"), false),
				token.Multiply,
				ast.NewConstantExpression(ext("2"), 2),
				ext("*"))
			body := ast.NewScriptBlockFromStatements(ext("{ $_ * 2 }"),
				[]ast.Statement{ast.NewExpressionStatement(ext("$_ * 2"), inner)}, nil)

			elements := []ast.PipelineElement{
				ast.NewCommandExpressionAst(ext("1,2,3"),
					ast.NewArrayLiteral(ext("1,2,3"), []ast.Expression{
						ast.NewConstantExpression(ext("1"), 1),
						ast.NewConstantExpression(ext("2"), 2),
						ast.NewConstantExpression(ext("3"), 3),
					}), nil),
				ast.NewCommandAst(ext("%{ $_ * 2 }"), []ast.Expression{
					ast.NewStringConstantExpression(ext("%"), "%", ast.BareWord),
					ast.NewScriptBlockExpression(ext("{ $_ * 2 }"), body),
				}, nil),
			}
			pipeline := ast.NewPipelineAst(ext("1,2,3 | %{ $_ * 2 }"), elements)
			return ast.NewScriptBlockFromStatements(ext("1,2,3 | %{ $_ * 2 }"),
				[]ast.Statement{pipeline}, nil)
		},
	},
	{
		name: "replace-operator",
		text: `"abc" -replace "b","BB"`,
		build: func() *ast.ScriptBlockAst {
			expr := ast.NewBinaryExpression(ext(`"abc" -replace "b","BB"`),
				ast.NewStringConstantExpression(ext(`"abc"`), "abc", ast.DoubleQuoted),
				token.Ireplace,
				ast.NewArrayLiteral(ext(`"b","BB"`), []ast.Expression{
					ast.NewStringConstantExpression(ext(`"b"`), "b", ast.DoubleQuoted),
					ast.NewStringConstantExpression(ext(`"BB"`), "BB", ast.DoubleQuoted),
				}),
				ext("-replace"))
			return ast.NewScriptBlockFromStatements(ext(`"abc" -replace "b","BB"`),
				[]ast.Statement{ast.NewExpressionStatement(ext(""), expr)}, nil)
		},
	},
	{
		name: "counting-loop",
		text: `for ($i = 0; $i -lt 3; ++$i) { "x$i" }`,
		build: func() *ast.ScriptBlockAst {
			init := ast.NewAssignmentStatement(ext("$i = 0"),
				ast.NewVariableExpression(ext("$i"), ast.NewVariablePath("i"), false),
				token.Equals,
				ast.NewExpressionStatement(ext("0"), ast.NewConstantExpression(ext("0"), 0)),
				ext("="))
			cond := ast.NewExpressionStatement(ext("$i -lt 3"),
				ast.NewBinaryExpression(ext("$i -lt 3"),
					ast.NewVariableExpression(ext("$i"), ast.NewVariablePath("i"), false),
					token.Ilt,
					ast.NewConstantExpression(ext("3"), 3),
					ext("-lt")))
			step := ast.NewExpressionStatement(ext("++$i"),
				ast.NewUnaryExpression(ext("++$i"), token.PlusPlus,
					ast.NewVariableExpression(ext("$i"), ast.NewVariablePath("i"), false)))
			bodyExpr := ast.NewExpandableStringExpression(ext(`"x$i"`), "x$i", "x{0}",
				[]ast.Expression{ast.NewVariableExpression(ext("$i"), ast.NewVariablePath("i"), false)})
			body := ast.NewStatementBlock(ext(`{ "x$i" }`),
				[]ast.Statement{ast.NewExpressionStatement(ext(`"x$i"`), bodyExpr)}, nil)
			loop := ast.NewForStatement(ext("for"), "", init, cond, step, body)
			return ast.NewScriptBlockFromStatements(ext("for-loop"), []ast.Statement{loop}, nil)
		},
	},
	{
		name: "try-catch-finally",
		text: `try { throw "e" } catch { $_.ToString() } finally { "f" }`,
		build: func() *ast.ScriptBlockAst {
			tryBody := ast.NewStatementBlock(ext(`{ throw "e" }`), []ast.Statement{
				ast.NewThrowStatement(ext(`throw "e"`),
					ast.NewExpressionStatement(ext(`"e"`),
						ast.NewStringConstantExpression(ext(`"e"`), "e", ast.DoubleQuoted))),
			}, nil)
			catchBody := ast.NewStatementBlock(ext("{ $_.ToString() }"), []ast.Statement{
				ast.NewExpressionStatement(ext("$_.ToString()"),
					ast.NewInvokeMemberExpression(ext("$_.ToString()"),
						ast.NewVariableExpression(ext("$_"), ast.NewVariablePath("_"), false),
						ast.NewStringConstantExpression(ext("ToString"), "ToString", ast.BareWord),
						nil, false)),
			}, nil)
			finallyBody := ast.NewStatementBlock(ext(`{ "f" }`), []ast.Statement{
				ast.NewExpressionStatement(ext(`"f"`),
					ast.NewStringConstantExpression(ext(`"f"`), "f", ast.DoubleQuoted)),
			}, nil)
			try := ast.NewTryStatement(ext("try"), tryBody,
				[]*ast.CatchClause{ast.NewCatchClause(ext("catch"), nil, catchBody)}, finallyBody)
			return ast.NewScriptBlockFromStatements(ext("try-sample"), []ast.Statement{try}, nil)
		},
	},
	{
		name: "regex-switch",
		text: `switch -regex ("hello") { "^h" { "H" } "^x" { "X" } default { "D" } }`,
		build: func() *ast.ScriptBlockAst {
			condition := ast.NewExpressionStatement(ext(`"hello"`),
				ast.NewStringConstantExpression(ext(`"hello"`), "hello", ast.DoubleQuoted))
			clause := func(pattern, out string) ast.SwitchClause {
				return ast.SwitchClause{
					Condition: ast.NewStringConstantExpression(ext(pattern), pattern, ast.DoubleQuoted),
					Body: ast.NewStatementBlock(ext(out), []ast.Statement{
						ast.NewExpressionStatement(ext(out),
							ast.NewStringConstantExpression(ext(out), out, ast.DoubleQuoted)),
					}, nil),
				}
			}
			defaultBody := ast.NewStatementBlock(ext("D"), []ast.Statement{
				ast.NewExpressionStatement(ext("D"),
					ast.NewStringConstantExpression(ext("D"), "D", ast.DoubleQuoted)),
			}, nil)
			sw := ast.NewSwitchStatement(ext("switch"), "", condition, ast.SwitchRegex,
				[]ast.SwitchClause{clause("^h", "H"), clause("^x", "X")}, defaultBody)
			return ast.NewScriptBlockFromStatements(ext("switch-sample"), []ast.Statement{sw}, nil)
		},
	},
}

func runSamples(_ *cobra.Command, _ []string) error {
	engine := psh.New()
	for _, s := range samples {
		fmt.Printf("--- %s\n    %s\n", s.name, s.text)
		out, err := engine.Run(s.build(), nil, nil)
		if err != nil {
			exitWithError("sample %q failed: %v", s.name, err)
		}
		for _, v := range out {
			fmt.Printf("    => %s\n", formatValue(v))
		}
	}
	return nil
}

func formatValue(v runtime.Value) string {
	if _, ok := v.(*runtime.StringValue); ok {
		return fmt.Sprintf("%q", v.String())
	}
	return v.String()
}
