package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestGetAttemptFromHeaders(t *testing.T) {
	c := &Consumer{}

	// First delivery: no retry hops yet.
	assert.Equal(t, 1, c.getAttemptFromHeaders(amqp.Delivery{}))
	assert.Equal(t, 1, c.getAttemptFromHeaders(amqp.Delivery{Headers: amqp.Table{}}))

	// Two expiries out of the retry queue mean this is the third attempt.
	d := amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{
			amqp.Table{"queue": "session.operations.retry", "reason": "expired", "count": int64(2)},
		},
	}}
	assert.Equal(t, 3, c.getAttemptFromHeaders(d))
}

func TestCalculateBackoff(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	assert.Equal(t, time.Second, c.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(2))
	assert.Equal(t, 8*time.Second, c.calculateBackoff(4))

	// Capped at one minute no matter the attempt.
	assert.Equal(t, 60*time.Second, c.calculateBackoff(12))
}
