package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-psh/internal/token"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the operator tokens the engine implements",
	Long: `Print the closed operator-token set of the language with the
classification the compiler keys its call sites on: case sensitivity,
negation, and compound-assignment desugaring.`,
	RunE: runOps,
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

// opsTable enumerates every named operator kind for display.
var opsTable = []token.Kind{
	token.Equals, token.PlusEquals, token.MinusEquals, token.MultiplyEquals,
	token.DivideEquals, token.RemainderEquals,
	token.And, token.Or, token.Xor, token.Not, token.Exclaim,
	token.Is, token.IsNot, token.As,
	token.DotDot, token.Plus, token.Minus, token.Multiply, token.Divide,
	token.Rem, token.Format,
	token.Shl, token.Shr, token.Band, token.Bor, token.Bxor, token.Bnot,
	token.Join, token.Split,
	token.Ieq, token.Ine, token.Ige, token.Igt, token.Ile, token.Ilt,
	token.Ilike, token.Inotlike, token.Imatch, token.Inotmatch,
	token.Ireplace, token.Icontains, token.Inotcontains, token.Iin, token.Inotin,
	token.Ceq, token.Cne, token.Cge, token.Cgt, token.Cle, token.Clt,
	token.Clike, token.Cnotlike, token.Cmatch, token.Cnotmatch,
	token.Creplace, token.Ccontains, token.Cnotcontains, token.Cin, token.Cnotin,
	token.Dot, token.Ampersand,
}

func runOps(_ *cobra.Command, _ []string) error {
	fmt.Printf("%-14s %-12s %-8s %s\n", "OPERATOR", "CASE", "NEGATED", "DESUGARS TO")
	for _, kind := range opsTable {
		caseLabel := "-"
		if kind.IsComparison() {
			if kind.CaseSensitive() {
				caseLabel = "sensitive"
			} else {
				caseLabel = "insensitive"
			}
		}
		negated := ""
		if kind.Negated() {
			negated = "yes"
		}
		desugar := ""
		if underlying := kind.UnderlyingAssignmentOperator(); underlying != token.Unknown {
			desugar = underlying.String()
		}
		fmt.Printf("%-14s %-12s %-8s %s\n", kind.String(), caseLabel, negated, desugar)
	}
	return nil
}
