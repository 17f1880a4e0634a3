package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Equals, "="},
		{PlusEquals, "+="},
		{And, "-and"},
		{Ieq, "-ieq"},
		{Ceq, "-ceq"},
		{Inotlike, "-inotlike"},
		{DotDot, ".."},
		{Format, "-f"},
		{Bnot, "-bnot"},
		{PostfixPlusPlus, "++"},
		{AndAnd, "&&"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestCaseClassification(t *testing.T) {
	if !Ceq.CaseSensitive() {
		t.Error("-ceq should be case sensitive")
	}
	if Ieq.CaseSensitive() {
		t.Error("-ieq should not be case sensitive")
	}
	if Plus.CaseSensitive() {
		t.Error("+ should not be case sensitive")
	}
	if !Ieq.IsComparison() || !Ceq.IsComparison() {
		t.Error("eq variants should classify as comparisons")
	}
	if Plus.IsComparison() {
		t.Error("+ should not classify as a comparison")
	}
}

func TestCaseInsensitiveVariant(t *testing.T) {
	pairs := []struct {
		sensitive   Kind
		insensitive Kind
	}{
		{Ceq, Ieq},
		{Cne, Ine},
		{Cge, Ige},
		{Cgt, Igt},
		{Cle, Ile},
		{Clt, Ilt},
		{Clike, Ilike},
		{Cnotlike, Inotlike},
		{Cmatch, Imatch},
		{Cnotmatch, Inotmatch},
		{Creplace, Ireplace},
		{Ccontains, Icontains},
		{Cnotcontains, Inotcontains},
		{Cin, Iin},
		{Cnotin, Inotin},
		{Csplit, Isplit},
		{Cjoin, Ijoin},
	}
	for _, p := range pairs {
		if got := p.sensitive.CaseInsensitiveVariant(); got != p.insensitive {
			t.Errorf("%s.CaseInsensitiveVariant() = %s, want %s", p.sensitive, got, p.insensitive)
		}
	}
	// Other kinds, such as +, map to themselves.
	if got := Plus.CaseInsensitiveVariant(); got != Plus {
		t.Errorf("+ should map to itself, got %s", got)
	}
}

func TestNegated(t *testing.T) {
	for _, kind := range []Kind{Ine, Cne, Inotlike, Cnotmatch, Inotcontains, Cnotin} {
		if !kind.Negated() {
			t.Errorf("%s should report negated", kind)
		}
	}
	for _, kind := range []Kind{Ieq, Ilike, Imatch, Icontains, Iin, Plus} {
		if kind.Negated() {
			t.Errorf("%s should not report negated", kind)
		}
	}
}

func TestAssignmentClassification(t *testing.T) {
	if !Equals.IsAssignment() || !RemainderEquals.IsAssignment() {
		t.Error("assignment operators should classify as assignments")
	}
	if Equals.IsCompoundAssignment() {
		t.Error("= is not a compound assignment")
	}
	if !PlusEquals.IsCompoundAssignment() {
		t.Error("+= is a compound assignment")
	}

	desugar := map[Kind]Kind{
		PlusEquals:      Plus,
		MinusEquals:     Minus,
		MultiplyEquals:  Multiply,
		DivideEquals:    Divide,
		RemainderEquals: Rem,
	}
	for compound, want := range desugar {
		if got := compound.UnderlyingAssignmentOperator(); got != want {
			t.Errorf("%s desugars to %s, want %s", compound, got, want)
		}
	}
	if Equals.UnderlyingAssignmentOperator() != Unknown {
		t.Error("= has no underlying operator")
	}
}
