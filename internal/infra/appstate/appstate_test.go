package appstate_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inakam/k8s-restart-notify/internal/infra/appstate"
	"github.com/inakam/k8s-restart-notify/internal/infra/pinger"
	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown/mocks"
)

func newAppState(t *testing.T, pingers *pinger.Service) *appstate.AppState {
	t.Helper()

	logger := slog.Default()
	if pingers == nil {
		pingers = pinger.New(logger, time.Second)
	}

	return appstate.New(
		logger,
		time.Now(),
		filepath.Join(t.TempDir(), "terminating"),
		make(chan os.Signal, 1),
		pingers,
	)
}

type failingPinger struct{}

func (failingPinger) Name() string {
	return "restart-watcher"
}

func (failingPinger) Ping(context.Context) error {
	return errors.New("stopped")
}

func TestAppState_StateTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		give      []func(*appstate.AppState, context.Context) error
		wantErr   error
		wantState appstate.State
	}{
		{
			name: "init to starting",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetStarting,
			},
			wantState: appstate.StateStarting,
		},
		{
			name: "starting to running",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetStarting,
				(*appstate.AppState).SetRunning,
			},
			wantState: appstate.StateRunning,
		},
		{
			name: "running to terminating",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetStarting,
				(*appstate.AppState).SetRunning,
				(*appstate.AppState).SetTerminating,
			},
			wantState: appstate.StateTerminating,
		},
		{
			name: "starting to terminating",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetStarting,
				(*appstate.AppState).SetTerminating,
			},
			wantState: appstate.StateTerminating,
		},
		{
			name: "invalid: init to running",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetRunning,
			},
			wantErr:   appstate.ErrInvalidStateTransition,
			wantState: appstate.StateInit,
		},
		{
			name: "invalid: terminated cannot change",
			give: []func(*appstate.AppState, context.Context) error{
				(*appstate.AppState).SetStarting,
				(*appstate.AppState).Shutdown,
				(*appstate.AppState).SetTerminating,
			},
			wantErr:   appstate.ErrAlreadyTerminated,
			wantState: appstate.StateTerminated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newAppState(t, nil)

			var err error
			for _, step := range tt.give {
				err = step(s, t.Context())
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tt.wantState, s.GetState())
		})
	}
}

func TestAppState_QueryMethods(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := newAppState(t, nil)

	require.Equal(t, appstate.StateInit, s.GetState())
	require.False(t, s.IsHealthy())
	require.False(t, s.IsReady())

	require.NoError(t, s.SetStarting(ctx))
	require.True(t, s.IsHealthy())
	require.False(t, s.IsReady())

	require.NoError(t, s.SetRunning(ctx))
	require.True(t, s.IsHealthy())
	require.True(t, s.IsReady())

	require.NoError(t, s.SetTerminating(ctx))
	require.False(t, s.IsHealthy())
	require.False(t, s.IsReady())
}

func TestAppState_PingerStatusGatesProbes(t *testing.T) {
	t.Parallel()

	pingers := pinger.New(slog.Default(), time.Hour)
	s := newAppState(t, pingers)

	require.NoError(t, s.RegisterPinger(failingPinger{}))
	require.NoError(t, s.SetStarting(t.Context()))
	require.NoError(t, s.SetRunning(t.Context()))

	require.True(t, s.IsHealthy())
	require.False(t, s.IsReady())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, pingers.Start(ctx))
	<-pingers.Ready()

	require.False(t, s.IsHealthy())
	require.False(t, s.IsReady())
	require.Contains(t, s.Statuses(), "restart-watcher")
}

func TestAppState_GetUptime(t *testing.T) {
	t.Parallel()

	s := newAppState(t, nil)

	time.Sleep(10 * time.Millisecond)

	uptime := s.GetUptime()
	require.Greater(t, uptime, time.Duration(0))
	require.Less(t, uptime, time.Second)
}

func TestAppState_Shutdown(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := newAppState(t, nil)

	errComponent := errors.New("component failed")

	first := mocks.NewMockShutdowner(t)
	first.EXPECT().Name().Return("first").Once()
	first.EXPECT().Shutdown(mock.Anything).Return(nil).Once()

	second := mocks.NewMockShutdowner(t)
	second.EXPECT().Name().Return("second").Once()
	second.EXPECT().Shutdown(mock.Anything).Return(errComponent).Once()

	require.NoError(t, s.RegisterShutdowner(first))
	require.NoError(t, s.RegisterShutdowner(second))

	require.NoError(t, s.SetStarting(ctx))
	require.NoError(t, s.SetRunning(ctx))

	require.ErrorIs(t, s.Shutdown(ctx), errComponent)
	require.Equal(t, appstate.StateTerminated, s.GetState())

	// second call is a no-op
	require.NoError(t, s.Shutdown(ctx))
	require.Equal(t, appstate.StateTerminated, s.GetState())

	late := mocks.NewMockShutdowner(t)
	late.EXPECT().Name().Return("late").Once()
	require.ErrorIs(t, s.RegisterShutdowner(late), appstate.ErrAlreadyTerminated)
}
