package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEmitter_PublishesEnvelope(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload := map[string]any{"bookingId": 7}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(LiveMessage{Event: "slot.reserved", Payload: raw})
	require.NoError(t, err)
	mock.ExpectPublish("rt:user:10", body).SetVal(1)

	err = NewRedisEmitter(db).Emit(context.Background(), UserRoom(10), "slot.reserved", payload)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisEmitter_PropagatesError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPublish("rt:admins", []byte(`{"event":"booking.paid","payload":{}}`)).SetErr(assert.AnError)

	err := NewRedisEmitter(db).Emit(context.Background(), AdminRoom, "booking.paid", map[string]any{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:42", UserRoom(42))
}
