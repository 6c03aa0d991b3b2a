package bfilter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/advdv/bfilter"
	"github.com/advdv/bfilter/bfiltertest"
	"github.com/stretchr/testify/require"
)

type Employee struct {
	Name string `json:"name"`
	Rate uint32 `json:"rate"`
}

// counting extracts vals and counts how often it was applied.
func counting(applied *int, vals ...any) bfilter.Filter {
	sig := make([]reflect.Type, 0, len(vals))
	for _, v := range vals {
		sig = append(sig, reflect.TypeOf(v))
	}

	return bfilter.NewFilter(sig, func(*bfilter.Route) bfilter.Outcome {
		*applied++
		return bfilter.Extracted(vals...)
	})
}

func TestChainConcatenatesInOrder(t *testing.T) {
	var n int
	f := counting(&n, "a", 1).Chain(counting(&n, true)).Chain(bfilter.Unit()).Chain(counting(&n, 2.5))
	require.Equal(t, "(string, int, bool, float64)", f.String())

	rt := bfiltertest.Route(t, http.MethodGet, "/", nil)
	out := f.Apply(rt)
	require.Equal(t, bfilter.OutcomeImmediate, out.Kind())
	require.Equal(t, bfilter.Tuple{"a", 1, true, 2.5}, out.Tuple())
	require.Equal(t, 3, n)
}

func TestChainAssociativity(t *testing.T) {
	for _, tt := range []struct {
		name    string
		a, b, c func() bfilter.Filter
	}{
		{
			name: "immediate then deferred",
			a:    bfilter.Param[int],
			b:    func() bfilter.Filter { return bfilter.Header("X-Name") },
			c:    bfilter.Concat,
		},
		{
			name: "deferred first",
			a:    bfilter.Concat,
			b:    bfilter.Param[int],
			c:    func() bfilter.Filter { return bfilter.Header("X-Name") },
		},
		{
			name: "deferred in the middle",
			a:    func() bfilter.Filter { return bfilter.Header("X-Name") },
			b:    bfilter.Concat,
			c:    bfilter.Param[int],
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			run := func(f bfilter.Filter) (bfilter.Tuple, *bfiltertest.Stream) {
				s := bfiltertest.Chunks("ab", "c")
				rt := bfiltertest.Route(t, http.MethodPost, "/7", s)
				rt.Header().Set("X-Name", "sean")

				tup, err := f.Apply(rt).Await(context.Background())
				require.NoError(t, err)

				return tup, s
			}

			left, s1 := run(tt.a().Chain(tt.b()).Chain(tt.c()))
			right, s2 := run(tt.a().Chain(tt.b().Chain(tt.c())))

			require.Equal(t, left, right)
			require.Len(t, left, 3)
			require.ElementsMatch(t, bfilter.Tuple{7, "sean", []byte("abc")}, left)
			require.True(t, s1.Closed())
			require.True(t, s2.Closed())
		})
	}
}

func TestChainFailFast(t *testing.T) {
	var n int
	s := bfiltertest.Chunks("body")
	rt := bfiltertest.Route(t, http.MethodGet, "/", s)

	out := bfilter.Method(http.MethodPost).Chain(bfilter.Concat()).Chain(counting(&n, 1)).Apply(rt)
	require.Equal(t, bfilter.OutcomeFailed, out.Kind())
	require.Equal(t, bfilter.KindMethodNotAllowed, bfilter.KindOf(out.Err()))
	require.Equal(t, 0, n)

	body, ok := rt.TakeBody()
	require.True(t, ok, "body must not have been taken")
	require.Equal(t, 0, s.Polls())
	require.NoError(t, body.Close())
}

func TestChainSequencesDeferredStages(t *testing.T) {
	var n int
	s := bfiltertest.NewStream()
	rt := bfiltertest.Route(t, http.MethodPost, "/", s)

	out := bfilter.Concat().Chain(counting(&n, "next")).Apply(rt)
	require.Equal(t, bfilter.OutcomeDeferred, out.Kind())
	require.Equal(t, 0, n)

	w := bfilter.NewWaker()
	require.Equal(t, bfilter.Pending, out.Deferred().Poll(w).Status())
	require.Equal(t, 0, n, "next stage must wait for the first")

	s.Push([]byte("hello"))
	require.Equal(t, bfilter.Pending, out.Deferred().Poll(w).Status())
	require.Equal(t, 0, n)

	s.End()
	p := out.Deferred().Poll(w)
	require.Equal(t, bfilter.Ready, p.Status())
	require.Equal(t, bfilter.Tuple{[]byte("hello"), "next"}, p.Value())
	require.Equal(t, 1, n)

	p = out.Deferred().Poll(w)
	require.Equal(t, bfilter.Ready, p.Status())
	require.Equal(t, 1, n, "a ready chain must not apply its stages again")
}

func TestChainDeferredRightStage(t *testing.T) {
	s := bfiltertest.NewStream()
	rt := bfiltertest.Route(t, http.MethodPost, "/", s)

	var n int
	out := counting(&n, 1).Chain(bfilter.Concat()).Apply(rt)
	require.Equal(t, bfilter.OutcomeDeferred, out.Kind())

	w := bfilter.NewWaker()
	require.Equal(t, bfilter.Pending, out.Deferred().Poll(w).Status())

	s.Push([]byte("x"))
	s.End()
	p := out.Deferred().Poll(w)
	require.Equal(t, bfilter.Ready, p.Status())
	require.Equal(t, bfilter.Tuple{1, []byte("x")}, p.Value())
}

func TestSecondBodyFilterRejects(t *testing.T) {
	rt := bfiltertest.Route(t, http.MethodPost, "/", bfiltertest.Chunks(`{"name":"Sean"}`))

	_, err := bfilter.JSON[Employee]().Chain(bfilter.Concat()).Apply(rt).Await(context.Background())
	require.Error(t, err)
	require.Equal(t, bfilter.KindBodyUnavailable, bfilter.KindOf(err))
	require.Equal(t, bfilter.CodeBadRequest, bfilter.CodeOf(err))
}

func TestMapKeepsShape(t *testing.T) {
	rt := bfiltertest.Route(t, http.MethodPost, "/", bfiltertest.Chunks("abc"))

	immediate := bfilter.Map1(bfilter.Value(2), func(v int) int { return v * 10 }).Apply(rt)
	require.Equal(t, bfilter.OutcomeImmediate, immediate.Kind())
	require.Equal(t, bfilter.Tuple{20}, immediate.Tuple())

	deferred := bfilter.Map1(bfilter.Concat(), func(b []byte) int { return len(b) }).Apply(rt)
	require.Equal(t, bfilter.OutcomeDeferred, deferred.Kind())

	tup, err := deferred.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, bfilter.Tuple{3}, tup)
}

func TestMapPropagatesRejection(t *testing.T) {
	rt := bfiltertest.Route(t, http.MethodPost, "/", nil)

	var called bool
	out := bfilter.Map1(bfilter.Concat(), func(b []byte) int { called = true; return len(b) }).Apply(rt)
	require.Equal(t, bfilter.OutcomeFailed, out.Kind())
	require.False(t, called)
}

func TestSignatureMismatchPanics(t *testing.T) {
	require.Panics(t, func() {
		bfilter.Map1(bfilter.Value("x"), func(v int) int { return v })
	})

	require.Panics(t, func() {
		bfilter.Map2(bfilter.Value(1), func(a, b int) int { return a + b })
	})

	require.NotPanics(t, func() {
		bfilter.Map1(bfilter.Value(1), func(v any) any { return v })
	})
}

func TestPromoteEmployee(t *testing.T) {
	promote := bfilter.Map2(
		bfilter.Exact("employees").Chain(bfilter.Param[uint32]()).Chain(bfilter.JSON[Employee]()),
		func(rate uint32, emp Employee) Employee {
			emp.Rate = rate
			return emp
		})

	rt := bfiltertest.Route(t, http.MethodPost, "/employees/2", bfiltertest.Chunks(`{"name":"Sean",`, `"rate":0}`))

	tup, err := promote.Apply(rt).Await(context.Background())
	require.NoError(t, err)

	buf, err := json.Marshal(bfilter.Get[Employee](tup, 0))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Sean","rate":2}`, string(buf))
}
