// Package token defines the closed set of operator token kinds used by
// binary and unary AST nodes. Tokenization itself lives outside this module;
// the parser hands over fully built trees whose operator nodes carry one of
// these kinds.
package token

// Kind identifies an operator token. The kinds are organized into logical
// groups; group boundaries are marked so classification helpers can use
// simple range checks.
type Kind int

// Operator token kinds organized by category
const (
	Unknown Kind = iota

	// Assignment operators
	Equals          // =
	PlusEquals      // +=
	MinusEquals     // -=
	MultiplyEquals  // *=
	DivideEquals    // /=
	RemainderEquals // %=

	assignmentEnd // marker for end of assignment section

	// Logical operators
	And // -and
	Or  // -or
	Xor // -xor
	Not // -not
	Exclaim

	// Type operators
	Is    // -is
	IsNot // -isnot
	As    // -as

	// Arithmetic operators
	DotDot   // ..
	Plus     // +
	Minus    // -
	Multiply // *
	Divide   // /
	Rem      // %
	Format   // -f

	// Bitwise operators
	Shl  // -shl
	Shr  // -shr
	Band // -band
	Bor  // -bor
	Bxor // -bxor
	Bnot // -bnot

	// Join and split
	Join   // -join
	Ijoin  // -ijoin
	Cjoin  // -cjoin
	Split  // -split
	Isplit // -isplit
	Csplit // -csplit

	caseInsensitiveBegin // marker for start of -i comparison section

	// Case-insensitive comparison operators
	Ieq          // -ieq
	Ine          // -ine
	Ige          // -ige
	Igt          // -igt
	Ile          // -ile
	Ilt          // -ilt
	Ilike        // -ilike
	Inotlike     // -inotlike
	Imatch       // -imatch
	Inotmatch    // -inotmatch
	Ireplace     // -ireplace
	Icontains    // -icontains
	Inotcontains // -inotcontains
	Iin          // -iin
	Inotin       // -inotin

	caseSensitiveBegin // marker for start of -c comparison section

	// Case-sensitive comparison operators
	Ceq          // -ceq
	Cne          // -cne
	Cge          // -cge
	Cgt          // -cgt
	Cle          // -cle
	Clt          // -clt
	Clike        // -clike
	Cnotlike     // -cnotlike
	Cmatch       // -cmatch
	Cnotmatch    // -cnotmatch
	Creplace     // -creplace
	Ccontains    // -ccontains
	Cnotcontains // -cnotcontains
	Cin          // -cin
	Cnotin       // -cnotin

	comparisonEnd // marker for end of comparison section

	// Unary increment/decrement
	PlusPlus          // ++ (prefix)
	MinusMinus        // -- (prefix)
	PostfixPlusPlus   // ++ (postfix)
	PostfixMinusMinus // -- (postfix)

	// Access and invocation
	Dot       // .
	Ampersand // &

	// Invalid end-of-line constructs rejected by the checker
	AndAnd // &&
	OrOr   // ||
)

var kindNames = map[Kind]string{
	Equals:            "=",
	PlusEquals:        "+=",
	MinusEquals:       "-=",
	MultiplyEquals:    "*=",
	DivideEquals:      "/=",
	RemainderEquals:   "%=",
	And:               "-and",
	Or:                "-or",
	Xor:               "-xor",
	Not:               "-not",
	Exclaim:           "!",
	Is:                "-is",
	IsNot:             "-isnot",
	As:                "-as",
	DotDot:            "..",
	Plus:              "+",
	Minus:             "-",
	Multiply:          "*",
	Divide:            "/",
	Rem:               "%",
	Format:            "-f",
	Shl:               "-shl",
	Shr:               "-shr",
	Band:              "-band",
	Bor:               "-bor",
	Bxor:              "-bxor",
	Bnot:              "-bnot",
	Join:              "-join",
	Ijoin:             "-ijoin",
	Cjoin:             "-cjoin",
	Split:             "-split",
	Isplit:            "-isplit",
	Csplit:            "-csplit",
	Ieq:               "-ieq",
	Ine:               "-ine",
	Ige:               "-ige",
	Igt:               "-igt",
	Ile:               "-ile",
	Ilt:               "-ilt",
	Ilike:             "-ilike",
	Inotlike:          "-inotlike",
	Imatch:            "-imatch",
	Inotmatch:         "-inotmatch",
	Ireplace:          "-ireplace",
	Icontains:         "-icontains",
	Inotcontains:      "-inotcontains",
	Iin:               "-iin",
	Inotin:            "-inotin",
	Ceq:               "-ceq",
	Cne:               "-cne",
	Cge:               "-cge",
	Cgt:               "-cgt",
	Cle:               "-cle",
	Clt:               "-clt",
	Clike:             "-clike",
	Cnotlike:          "-cnotlike",
	Cmatch:            "-cmatch",
	Cnotmatch:         "-cnotmatch",
	Creplace:          "-creplace",
	Ccontains:         "-ccontains",
	Cnotcontains:      "-cnotcontains",
	Cin:               "-cin",
	Cnotin:            "-cnotin",
	PlusPlus:          "++",
	MinusMinus:        "--",
	PostfixPlusPlus:   "++",
	PostfixMinusMinus: "--",
	Dot:               ".",
	Ampersand:         "&",
	AndAnd:            "&&",
	OrOr:              "||",
}

// String returns the source spelling of the operator.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "<unknown>"
}

// IsAssignment reports whether the kind is an assignment operator.
func (k Kind) IsAssignment() bool {
	return k > Unknown && k < assignmentEnd
}

// IsCompoundAssignment reports whether the kind is an assignment operator
// other than plain =.
func (k Kind) IsCompoundAssignment() bool {
	return k.IsAssignment() && k != Equals
}

// IsComparison reports whether the kind is one of the -i/-c comparison,
// like, match, replace, contains or in operators.
func (k Kind) IsComparison() bool {
	return k > caseInsensitiveBegin && k < comparisonEnd && k != caseSensitiveBegin
}

// CaseSensitive reports whether the kind is a -c variant. The -i variants
// and all kinds outside the comparison section report false.
func (k Kind) CaseSensitive() bool {
	return k > caseSensitiveBegin && k < comparisonEnd
}

// CaseInsensitiveVariant maps a -c comparison kind, -cjoin or -csplit to its
// -i counterpart. All other kinds map to themselves. Operator runtime call sites are keyed on
// the insensitive variant plus a case flag so identical sites are shared.
func (k Kind) CaseInsensitiveVariant() Kind {
	if k.CaseSensitive() {
		return k - (caseSensitiveBegin - caseInsensitiveBegin)
	}
	switch k {
	case Cjoin:
		return Ijoin
	case Csplit:
		return Isplit
	}
	return k
}

// Negated reports whether the kind is one of the not-variants
// (ne, notlike, notmatch, notcontains, notin).
func (k Kind) Negated() bool {
	switch k.CaseInsensitiveVariant() {
	case Ine, Inotlike, Inotmatch, Inotcontains, Inotin:
		return true
	}
	return false
}

// UnderlyingAssignmentOperator maps a compound assignment kind to the binary
// operator it desugars to. Plain = and non-assignment kinds map to Unknown.
func (k Kind) UnderlyingAssignmentOperator() Kind {
	switch k {
	case PlusEquals:
		return Plus
	case MinusEquals:
		return Minus
	case MultiplyEquals:
		return Multiply
	case DivideEquals:
		return Divide
	case RemainderEquals:
		return Rem
	}
	return Unknown
}
