package services

import (
	"context"
	"testing"
	"time"

	"fanpass/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_StoreAndLookup(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)
	ctx := context.Background()

	rmock.Regexp().ExpectSet("session:tok-1", `\{"user_id":"cust-1","created":".*"\}`, time.Hour).SetVal("OK")
	require.NoError(t, svc.Store(ctx, "tok-1", "cust-1"))

	rmock.ExpectGet("session:tok-1").SetVal(`{"user_id":"cust-1","created":"2026-01-01T00:00:00Z"}`)
	userID, err := svc.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", userID)

	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestSessionService_LookupUnknownToken(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)

	rmock.ExpectGet("session:missing").RedisNil()

	_, err := svc.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrSessionNotFound)
}

func TestSessionService_Delete(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)

	rmock.ExpectDel("session:tok-1").SetVal(1)
	assert.NoError(t, svc.Delete(context.Background(), "tok-1"))

	// Deleting a token that was never stored is fine.
	rmock.ExpectDel("session:gone").SetVal(0)
	assert.NoError(t, svc.Delete(context.Background(), "gone"))

	assert.NoError(t, rmock.ExpectationsWereMet())
}
