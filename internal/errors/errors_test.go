package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-psh/internal/source"
)

func extentAt(line, column int) source.Extent {
	e := source.EmptyExtent
	e.StartLine = line
	e.StartColumn = column
	e.EndLine = line
	e.EndColumn = column + 1
	e.Text = "x"
	return e
}

func TestBagAccumulates(t *testing.T) {
	bag := NewBag()
	if bag.HasErrors() {
		t.Error("a fresh bag should have no errors")
	}

	bag.Addf(extentAt(1, 1), IDLabelNotFound, "label %q not found", "outer")
	bag.Addf(extentAt(2, 5), IDDuplicateKeyInHashLiteral, "duplicate key %q", "a")

	if !bag.HasErrors() {
		t.Fatal("bag should report errors")
	}
	if bag.Len() != 2 {
		t.Fatalf("bag.Len() = %d, want 2", bag.Len())
	}
	if bag.Find(IDLabelNotFound) == nil {
		t.Error("Find should locate the recorded diagnostic by id")
	}
	if bag.Find("NoSuchId") != nil {
		t.Error("Find of an unknown id should return nil")
	}

	diags := bag.Diagnostics()
	if diags[0].ID != IDLabelNotFound || diags[1].ID != IDDuplicateKeyInHashLiteral {
		t.Error("diagnostics should come back in insertion order")
	}
}

func TestFormatDiagnosticCaret(t *testing.T) {
	src := "line one\nline two with problem\nline three"
	d := NewDiagnostic(extentAt(2, 6), IDUnexpectedKeyword, "unexpected keyword")

	out := FormatDiagnostic(d, src, false)
	if !strings.Contains(out, "line two with problem") {
		t.Errorf("formatted output should include the source line:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("formatted output should include a caret:\n%s", out)
	}
	if !strings.Contains(out, "unexpected keyword") {
		t.Errorf("formatted output should include the message:\n%s", out)
	}
}

func TestBagFormatMultiple(t *testing.T) {
	bag := NewBag()
	bag.Addf(extentAt(1, 1), "A", "first")
	bag.Addf(extentAt(2, 1), "B", "second")

	out := bag.Format("src", false)
	if !strings.Contains(out, "2 error(s)") {
		t.Errorf("multi-error format should count errors:\n%s", out)
	}
	if !strings.Contains(out, "[Error 1 of 2]") || !strings.Contains(out, "[Error 2 of 2]") {
		t.Errorf("multi-error format should number errors:\n%s", out)
	}
}

func TestRuntimeErrorWrapping(t *testing.T) {
	inner := NewRuntimeError(extentAt(3, 2), IDMethodNotFound, "method %q not found", "Frob")
	if inner.ID != IDMethodNotFound {
		t.Errorf("ID = %q", inner.ID)
	}
	if !strings.Contains(inner.Error(), "3:2") {
		t.Errorf("Error() should carry the position: %s", inner.Error())
	}

	wrapped := NewWrappedRuntimeError(extentAt(1, 1), IDMethodInvocationException, inner)
	if wrapped.Unwrap() != inner {
		t.Error("Unwrap should expose the cause")
	}
}

func TestStackTrace(t *testing.T) {
	st := StackTrace{
		NewStackFrame("Outer", "a.ps1", extentAt(1, 1)),
		NewStackFrame("Inner", "a.ps1", extentAt(5, 3)),
	}
	if st.Depth() != 2 {
		t.Fatalf("Depth() = %d", st.Depth())
	}
	if st.Top().FunctionName != "Inner" {
		t.Errorf("Top() = %q, want Inner", st.Top().FunctionName)
	}
	out := st.String()
	if !strings.HasPrefix(out, "Inner") {
		t.Errorf("String() should list the most recent frame first:\n%s", out)
	}
}
