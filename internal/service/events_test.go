package service

import (
	"context"
	"errors"
	"testing"

	"codecrew/internal/featureflags"
	"codecrew/internal/notifications"

	"github.com/stretchr/testify/mock"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType notifications.EventType, payload any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func TestRealtime_Emit(t *testing.T) {
	ctx := context.Background()
	payload := map[string]any{"problemId": uint(7)}

	t.Run("publishes when the flag is on", func(t *testing.T) {
		pub := &mockPublisher{}
		pub.On("Publish", ctx, notifications.EventProblemCreated, payload).Return(nil).Once()

		NewRealtime(pub, featureflags.NewManager("")).Emit(ctx, notifications.EventProblemCreated, payload)
		pub.AssertExpectations(t)
	})

	t.Run("publish errors are swallowed", func(t *testing.T) {
		pub := &mockPublisher{}
		pub.On("Publish", ctx, notifications.EventVoteChanged, mock.Anything).Return(errors.New("redis down")).Once()

		NewRealtime(pub, featureflags.NewManager("")).Emit(ctx, notifications.EventVoteChanged, payload)
		pub.AssertExpectations(t)
	})

	t.Run("flag off", func(t *testing.T) {
		pub := &mockPublisher{}
		NewRealtime(pub, featureflags.NewManager("realtime_events=off")).Emit(ctx, notifications.EventAnswerCreated, payload)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil publisher and nil receiver", func(t *testing.T) {
		NewRealtime(nil, featureflags.NewManager("")).Emit(ctx, notifications.EventAnswerCreated, payload)
		var r *Realtime
		r.Emit(ctx, notifications.EventAnswerCreated, payload)
	})
}
