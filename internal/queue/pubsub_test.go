package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ayzen-labs/leadminer/internal/queue"
)

func TestPubSubProviderPublish(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	topic, err := client.CreateTopic(ctx, "run-events")
	require.NoError(t, err)

	provider := &queue.PubSubProvider{Client: client, Topic: topic, Logger: zaptest.NewLogger(t)}

	evt := queue.RunEvent{
		RunID:      "run-1",
		UserName:   "tester",
		Outcome:    "completed",
		Contacts:   4,
		FinishedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, provider.Publish(ctx, evt))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got queue.RunEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, evt, got)
	assert.Equal(t, "completed", msgs[0].Attributes["outcome"])
}

func TestNoOpProvider(t *testing.T) {
	t.Parallel()

	var p queue.NoOpProvider
	assert.NoError(t, p.Publish(context.Background(), queue.RunEvent{}))
	assert.NoError(t, p.Close())
}
