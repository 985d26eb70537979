package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitTicket(t *testing.T, ticket *Ticket) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := ticket.Wait(ctx)
	require.NoError(t, err, "validation did not finish")
	return res
}

func TestSession_PublishesResult(t *testing.T) {
	s := NewSession(newTestValidator(t))

	ticket := s.Select(context.Background(), BytesSource("ok.csv", []byte(csvLines("a,b", "1,2"))))
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, "ok.csv", ticket.File)

	res := waitTicket(t, ticket)
	assert.True(t, res.OK)
	assert.False(t, ticket.Superseded())

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, res, latest)
	assert.Same(t, ticket, s.Current())
}

func TestSession_NewSelectionSupersedes(t *testing.T) {
	s := NewSession(newTestValidator(t))
	slow := newBlockingSource()

	first := s.Select(context.Background(), slow)
	<-slow.opened

	second := s.Select(context.Background(), BytesSource("ok.csv", []byte(csvLines("a,b", "1,2"))))

	firstRes := waitTicket(t, first)
	assert.True(t, first.Superseded())
	assert.Equal(t, ReasonReadError, firstRes.Reason)

	secondRes := waitTicket(t, second)
	assert.True(t, secondRes.OK)
	assert.NotEqual(t, first.ID, second.ID)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.True(t, latest.OK)
}

func TestSession_StaleResultNotPublished(t *testing.T) {
	s := NewSession(newTestValidator(t))
	slow := newBlockingSource()

	first := s.Select(context.Background(), slow)
	<-slow.opened

	s.Clear()
	waitTicket(t, first)

	_, ok := s.Latest()
	assert.False(t, ok)
	assert.Nil(t, s.Current())
	assert.True(t, first.Superseded())
}

func TestTicket_ResultBeforeDone(t *testing.T) {
	s := NewSession(newTestValidator(t))
	slow := newBlockingSource()

	ticket := s.Select(context.Background(), slow)
	<-slow.opened

	_, ok := ticket.Result()
	assert.False(t, ok)

	s.Clear()
	<-ticket.Done()

	res, ok := ticket.Result()
	assert.True(t, ok)
	assert.False(t, res.OK)
}

func TestTicket_WaitHonoursContext(t *testing.T) {
	s := NewSession(newTestValidator(t))
	slow := newBlockingSource()

	ticket := s.Select(context.Background(), slow)
	defer s.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ticket.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
