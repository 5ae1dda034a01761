package notifications_test

import (
	"aclue/internal/model"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	testmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
)

func subscription() *model.PushSubscription {
	return &model.PushSubscription{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     model.PushKeys{P256dh: "BNc...", Auth: "tBH..."},
	}
}

func TestSubscribe_RelaysSubscription(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := subscription()

	e.push.On("Subscribe", testmock.Anything).Return(sub, nil)
	e.backend.On("Post", testmock.Anything, "/api/notifications/subscribe", sub).
		Return(&model.Envelope{Success: true}, nil)

	got, err := e.manager.Subscribe(ctx)
	require.NoError(t, err)
	assert.Same(t, sub, got)

	e.push.AssertExpectations(t)
	e.backend.AssertExpectations(t)
	assert.Empty(t, e.manager.List())
}

func TestSubscribe_FailureBecomesErrorNotification(t *testing.T) {
	e := newEnv(t)
	e.nativeOff()
	ctx := context.Background()

	boom := errors.New("service worker not ready")
	e.push.On("Subscribe", testmock.Anything).Return(nil, boom)

	_, err := e.manager.Subscribe(ctx)
	assert.ErrorIs(t, err, boom)

	list := e.manager.List()
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationError, list[0].Type)
	assert.Equal(t, "Subscription failed", list[0].Title)
	e.backend.AssertNotCalled(t, "Post", testmock.Anything, testmock.Anything, testmock.Anything)
}

func TestSubscribe_BackendFailure(t *testing.T) {
	e := newEnv(t)
	e.nativeOff()
	ctx := context.Background()

	e.push.On("Subscribe", testmock.Anything).Return(subscription(), nil)
	e.backend.On("Post", testmock.Anything, "/api/notifications/subscribe", testmock.Anything).
		Return(nil, model.NewAPIError("down", model.CodeServer, 503, "", nil, nil))

	_, err := e.manager.Subscribe(ctx)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, 1, e.manager.UnreadCount())
}

func TestUnsubscribe_SendsEndpoint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := subscription()

	e.push.On("Current", testmock.Anything).Return(sub, nil)
	e.push.On("Unsubscribe", testmock.Anything, sub).Return(nil)
	e.backend.On("Post", testmock.Anything, "/api/notifications/unsubscribe",
		map[string]string{"endpoint": sub.Endpoint}).Return(&model.Envelope{Success: true}, nil)

	require.NoError(t, e.manager.Unsubscribe(ctx))

	e.push.AssertExpectations(t)
	e.backend.AssertExpectations(t)
}

func TestUnsubscribe_NothingToRemove(t *testing.T) {
	e := newEnv(t)
	e.push.On("Current", testmock.Anything).Return(nil, nil)

	require.NoError(t, e.manager.Unsubscribe(context.Background()))
	e.push.AssertNotCalled(t, "Unsubscribe", testmock.Anything, testmock.Anything)
}

func TestUnsubscribe_FailureBecomesErrorNotification(t *testing.T) {
	e := newEnv(t)
	e.nativeOff()
	ctx := context.Background()
	sub := subscription()

	boom := errors.New("unsubscribe rejected")
	e.push.On("Current", testmock.Anything).Return(sub, nil)
	e.push.On("Unsubscribe", testmock.Anything, sub).Return(boom)

	err := e.manager.Unsubscribe(ctx)
	assert.ErrorIs(t, err, boom)

	list := e.manager.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Unsubscribe failed", list[0].Title)
	assert.Equal(t, "push unsubscribe: unsubscribe rejected", list[0].Metadata["error"])
}
