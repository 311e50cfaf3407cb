package gmail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailgate/internal/provider"
)

func TestSender_RoutesByInbox(t *testing.T) {
	apis := map[string]*fakeAPI{}
	var created []string
	s := NewSenderWithFactory("personal", func(_ context.Context, account string) (*Client, error) {
		created = append(created, account)
		api := &fakeAPI{}
		apis[account] = api
		return newTestClient(api), nil
	})

	msg := provider.Message{To: "a@b.c", Text: "x"}
	_, err := s.Send(context.Background(), "", msg)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "work", msg)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "work", msg)
	require.NoError(t, err)

	assert.Equal(t, []string{"personal", "work"}, created)
	assert.Equal(t, 1, apis["personal"].sendCalls)
	assert.Equal(t, 2, apis["work"].sendCalls)
	assert.Equal(t, "gmail", s.Name())
}

func TestSender_FactoryErrorNotCached(t *testing.T) {
	calls := 0
	s := NewSenderWithFactory("", func(_ context.Context, account string) (*Client, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no token")
		}
		return newTestClient(&fakeAPI{}), nil
	})

	_, err := s.Send(context.Background(), "", provider.Message{To: "a@b.c"})
	require.Error(t, err)
	_, err = s.Send(context.Background(), "", provider.Message{To: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
