package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

func TestScripted_FailsThenSucceeds(t *testing.T) {
	tr := NewScripted(map[string]Script{
		"s1": {Code: domain.ErrFailSendMessage, Failures: 2},
	})
	msg := &domain.Message{ServerType: "chat", Service: "chatRemote", Method: "add"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := tr.Send(ctx, "s1", msg)
		require.Error(t, err)
		assert.Equal(t, domain.ErrFailSendMessage, CodeOf(err))
	}

	res, err := tr.Send(ctx, "s1", msg)
	require.NoError(t, err)
	assert.Equal(t, "chatRemote.add handled by s1", res)
	assert.Equal(t, 3, tr.Sends("s1"))

	_, err = tr.Send(ctx, "s2", msg)
	assert.NoError(t, err)
}

func TestScripted_ConnectFailures(t *testing.T) {
	tr := NewScripted(map[string]Script{"s1": {ConnectFailures: 1}})
	ctx := context.Background()

	err := tr.Connect(ctx, "s1")
	assert.Equal(t, domain.ErrFailConnectServer, CodeOf(err))
	assert.NoError(t, tr.Connect(ctx, "s1"))
	assert.Equal(t, 2, tr.Connects("s1"))
}

func TestScripted_CancelledContext(t *testing.T) {
	tr := NewScripted(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Send(ctx, "s1", &domain.Message{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.ErrFailSendMessage, CodeOf(err))
}
