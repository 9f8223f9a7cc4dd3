package kafka

import (
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducer() *Producer {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewProducer(ProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "clover.dedup.events",
	}, logger)
}

func TestDuplicateMessage(t *testing.T) {
	producer := testProducer()

	event := &DuplicateEvent{
		EventType:       "duplicate.detected",
		SchemaVersion:   "1.0",
		MatchID:         "match-1",
		SourceListingID: "listing-a",
		TargetListingID: "listing-b",
		OverallScore:    0.97,
		Confidence:      "high",
	}

	msg, err := producer.duplicateMessage(event)
	require.NoError(t, err)

	assert.Equal(t, "clover.dedup.events", msg.Topic)
	assert.Equal(t, []byte("match-1"), msg.Key)
	assert.False(t, event.Timestamp.IsZero())

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "duplicate.detected", headers["event_type"])
	assert.Equal(t, "1.0", headers["schema_version"])
	assert.Equal(t, "listing-a", headers["source_listing_id"])
	assert.Equal(t, "listing-b", headers["target_listing_id"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "1.0", payload["schema_version"])
	assert.Equal(t, "match-1", payload["match_id"])
}

func TestReviewMessage(t *testing.T) {
	producer := testProducer()

	event := &ReviewEvent{
		EventType:       "review.needed",
		SchemaVersion:   "1.0",
		ReviewItemID:    "review-1",
		SourceListingID: "listing-a",
		TargetListingID: "listing-b",
		MatchScore:      0.72,
	}

	msg, err := producer.reviewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("review-1"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "review.needed", headers["event_type"])
	assert.Equal(t, "1.0", headers["schema_version"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "1.0", payload["schema_version"])
	assert.Equal(t, "review-1", payload["review_item_id"])
}
