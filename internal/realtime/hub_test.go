package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu   sync.Mutex
	msgs [][]byte
	fail bool
}

func (f *fakeClient) Send(m []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.msgs = append(f.msgs, m)
	return true
}

func (f *fakeClient) Close() {}

func TestHub_PublishReachesOnlyTargetUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := &fakeClient{}, &fakeClient{}, &fakeClient{}
	h.Register("a", a1)
	h.Register("a", a2)
	h.Register("b", b)
	require.Equal(t, 2, h.Connected("a"))

	n, err := h.Publish("a", Event{Type: "notification", TaskID: "t1", Kind: "comment"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Empty(t, b.msgs)

	var ev Event
	require.NoError(t, json.Unmarshal(a1.msgs[0], &ev))
	require.Equal(t, "t1", ev.TaskID)
}

func TestHub_UnregisterAndFailedSend(t *testing.T) {
	h := NewHub()
	ok, bad := &fakeClient{}, &fakeClient{fail: true}
	h.Register("a", ok)
	h.Register("a", bad)
	require.Equal(t, 1, h.Broadcast("a", []byte("x")))

	h.Unregister("a", ok)
	h.Unregister("a", bad)
	require.Equal(t, 0, h.Connected("a"))
	require.Equal(t, 0, h.Broadcast("a", []byte("x")))
}
