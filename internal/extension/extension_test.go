package extension

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/component"
)

func TestSystem_TriggerUnknownPoint(t *testing.T) {
	s := NewSystem()

	_, err := s.TriggerExtensionPoint(context.Background(), "never.registered", Context{})
	require.ErrorIs(t, err, component.ErrUnknownExtensionPoint)
	require.Contains(t, err.Error(), "never.registered")
}

func TestSystem_ZeroHandlersIdentityPassthrough(t *testing.T) {
	s := NewSystem()

	in := Context{"key": "value"}
	out, err := s.TriggerExtensionPoint(context.Background(), PointCompile, in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestSystem_HandlersThreadContextInOrder(t *testing.T) {
	s := NewSystem()

	for i := 0; i < 3; i++ {
		i := i
		s.RegisterExtension(PointTransform, func(ctx context.Context, pc Context) (Context, error) {
			next := pc.Clone()
			trail, _ := next["trail"].([]int)
			next["trail"] = append(trail, i)
			return next, nil
		})
	}

	out, err := s.TriggerExtensionPoint(context.Background(), PointTransform, Context{})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, out["trail"])
}

func TestSystem_HandlerSeesPreviousHandlersOutput(t *testing.T) {
	s := NewSystem()

	s.RegisterExtension(PointCompile, func(ctx context.Context, pc Context) (Context, error) {
		pc[KeyCode] = "base"
		return pc, nil
	})
	s.RegisterExtension(PointCompile, func(ctx context.Context, pc Context) (Context, error) {
		pc[KeyCode] = pc.Code() + "+decorated"
		return pc, nil
	})

	out, err := s.TriggerExtensionPoint(context.Background(), PointCompile, Context{})
	require.NoError(t, err)
	require.Equal(t, "base+decorated", out.Code())
}

func TestSystem_HandlerErrorStopsChain(t *testing.T) {
	s := NewSystem()

	boom := errors.New("boom")
	called := 0
	s.RegisterExtension(PointValidate, func(ctx context.Context, pc Context) (Context, error) {
		called++
		return nil, boom
	})
	s.RegisterExtension(PointValidate, func(ctx context.Context, pc Context) (Context, error) {
		called++
		return pc, nil
	})

	_, err := s.TriggerExtensionPoint(context.Background(), PointValidate, Context{})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, called)
}

func TestSystem_RegisterExtensionPointIdempotent(t *testing.T) {
	s := NewSystem()

	require.NoError(t, s.RegisterExtensionPoint("custom.point", "does things"))
	require.NoError(t, s.RegisterExtensionPoint("custom.point", "does things"))

	err := s.RegisterExtensionPoint("custom.point", "does different things")
	require.ErrorIs(t, err, component.ErrDuplicateExtensionPoint)
}

func TestSystem_CancelledContextStopsDispatch(t *testing.T) {
	s := NewSystem()

	s.RegisterExtension(PointCompile, func(ctx context.Context, pc Context) (Context, error) {
		return pc, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.TriggerExtensionPoint(ctx, PointCompile, Context{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestContext_CloneIsShallow(t *testing.T) {
	shared := map[string]any{"nested": true}
	original := Context{"a": 1, "shared": shared}

	clone := original.Clone()
	clone["a"] = 2

	require.Equal(t, 1, original["a"])
	require.Equal(t, shared, clone["shared"])
}
