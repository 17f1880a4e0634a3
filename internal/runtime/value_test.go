package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerCacheIdentity(t *testing.T) {
	for _, v := range []int64{-100, -1, 0, 42, 999} {
		if Int(v) != Int(v) {
			t.Errorf("Int(%d) should return the shared boxed instance", v)
		}
	}
	// Outside the cached window each call allocates.
	if Int(1000) == Int(1000) {
		t.Error("Int(1000) should be outside the cache")
	}
	if Int(-101) == Int(-101) {
		t.Error("Int(-101) should be outside the cache")
	}
}

func TestCharCacheIdentity(t *testing.T) {
	if Char('a') != Char('a') {
		t.Error("Char('a') should be cached")
	}
	if Char(0x1F600) == Char(0x1F600) {
		t.Error("code points above 255 should not be cached")
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		value Value
		want  bool
	}{
		{Null, false},
		{False, false},
		{True, true},
		{Int(0), false},
		{Int(-1), true},
		{Float(0), false},
		{Float(0.5), true},
		{Str(""), false},
		{Str("x"), true},
		{&ArrayValue{}, false},
		{&ArrayValue{Elements: []Value{Int(0)}}, false},
		{&ArrayValue{Elements: []Value{Int(0), Int(0)}}, true},
		{NewHashtable(false), true},
	}
	for _, tt := range tests {
		if got := IsTruthy(tt.value); got != tt.want {
			t.Errorf("IsTruthy(%s %s) = %v, want %v", tt.value.Type(), tt.value, got, tt.want)
		}
	}
}

func TestHashtableCaseInsensitiveOrdered(t *testing.T) {
	h := NewHashtable(true)
	h.Set("Alpha", Int(1))
	h.Set("beta", Int(2))
	h.Set("Gamma", Int(3))

	v, ok := h.Get("ALPHA")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.(*IntegerValue).Value)

	assert.Equal(t, []string{"Alpha", "beta", "Gamma"}, h.Keys(), "insertion order should hold")

	// Overwriting through a different spelling keeps the slot and order.
	h.Set("BETA", Int(20))
	v, _ = h.Get("beta")
	assert.Equal(t, int64(20), v.(*IntegerValue).Value)
	assert.Equal(t, 3, h.Len())

	h.Remove("alpha")
	assert.False(t, h.Has("Alpha"))
}

func TestPipelineResult(t *testing.T) {
	assert.Equal(t, Null, PipelineResult(nil))
	assert.Equal(t, Int(7), PipelineResult([]Value{Int(7)}))
	out := PipelineResult([]Value{Int(1), Int(2)})
	arr, ok := out.(*ArrayValue)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 2)
}

func TestRangeEnumerator(t *testing.T) {
	collect := func(lo, hi int64) []int64 {
		e := NewRangeEnumerator(lo, hi)
		var out []int64
		for {
			more, err := e.MoveNext()
			require.NoError(t, err)
			if !more {
				return out
			}
			v, err := e.Current()
			require.NoError(t, err)
			out = append(out, v.(*IntegerValue).Value)
		}
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, collect(1, 5))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, collect(5, 1))
	assert.Equal(t, []int64{3}, collect(3, 3), "a degenerate range still yields one element")

	// The sequence is restartable.
	e := NewRangeEnumerator(1, 2)
	e.MoveNext()
	e.Reset()
	more, _ := e.MoveNext()
	require.True(t, more)
	v, _ := e.Current()
	assert.Equal(t, int64(1), v.(*IntegerValue).Value)
}

func TestFlowControlSignals(t *testing.T) {
	signals := []error{
		&BreakException{Label: "outer"},
		&ContinueException{},
		&ReturnException{Value: Int(1)},
		&ExitException{Code: Int(2)},
		&PipelineStoppedException{},
		&TerminateException{},
		&StopUpstreamCommandsException{},
	}
	for _, s := range signals {
		if !IsFlowControl(s) {
			t.Errorf("%T should classify as flow control", s)
		}
	}
	if IsFlowControl(assert.AnError) {
		t.Error("ordinary errors are not flow control")
	}

	be := &BreakException{Label: "Outer"}
	assert.True(t, be.MatchesLoop("outer"), "label matching is case-insensitive")
	assert.False(t, be.MatchesLoop("inner"))
	assert.True(t, (&BreakException{}).MatchesLoop("anything"), "a label-less break matches every loop")
}

func TestLocalsTuple(t *testing.T) {
	layout := NewTupleLayout([]string{"x", "y"})
	tuple := NewLocalsTuple(layout)

	slot := layout.Slot("X")
	require.GreaterOrEqual(t, slot, len(AutomaticVariables), "user slots follow the automatic ones")

	if tuple.WasSet(slot) {
		t.Error("slots start unset")
	}
	assert.Equal(t, Null, tuple.GetSlot(slot), "unset slots read as null")

	tuple.SetSlot(slot, Int(5))
	assert.True(t, tuple.WasSet(slot))
	assert.Equal(t, Int(5), tuple.GetSlot(slot))

	v, set := tuple.GetName("x")
	assert.True(t, set)
	assert.Equal(t, Int(5), v)

	assert.Equal(t, -1, layout.Slot("unknown"), "unknown names are forced dynamic")

	if slot, ok := IsAutomaticVariable("_"); !ok || slot != SlotUnderscore {
		t.Error("$_ should map to its fixed slot")
	}
}

func TestCheckForInterrupts(t *testing.T) {
	ctx := NewExecutionContext()
	require.NoError(t, CheckForInterrupts(ctx))
	ctx.RequestStop()
	err := CheckForInterrupts(ctx)
	require.Error(t, err)
	assert.True(t, IsPipelineStopped(err))

	saved := ctx.SuspendStoppingPipeline()
	require.NoError(t, CheckForInterrupts(ctx), "finally bodies run with stopping suspended")
	ctx.RestoreStoppingPipeline(saved)
	assert.Error(t, CheckForInterrupts(ctx))
}
