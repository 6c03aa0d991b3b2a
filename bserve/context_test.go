package bserve_test

import (
	"context"
	"testing"

	"github.com/advdv/bfilter/bserve"
	"github.com/stretchr/testify/require"
)

func TestContextOutsideRequest(t *testing.T) {
	ctx := context.Background()

	require.Empty(t, bserve.RequestID(ctx))
	require.False(t, bserve.Span(ctx).SpanContext().IsValid())
	require.PanicsWithValue(t, "bserve: requestDep not found in context; is the middleware configured?", func() {
		bserve.Log(ctx)
	})
}
