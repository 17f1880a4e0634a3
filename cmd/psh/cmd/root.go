package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "psh",
	Short: "Script engine core: checker, compiler and evaluator",
	Long: `go-psh is the execution-engine core of a dynamic shell scripting
language: the path from a parsed abstract syntax tree to an executable,
evaluable program.

The engine covers the AST data model with its visitor protocol, the
semantic-analysis pass that validates trees and enforces language
restrictions, and the expression-tree compiler that lowers validated
ASTs into callable begin/process/end entry points.

Tokenization and parsing live outside this module; the subcommands here
operate on engine metadata and on embedded sample programs.`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
