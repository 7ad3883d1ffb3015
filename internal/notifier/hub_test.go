package notifier

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestSocket(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(userID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	<-registered
	return client
}

func TestPushToUserDeliversToRegisteredSocket(t *testing.T) {
	hub := NewHub()
	client := dialTestSocket(t, hub, "user-1")

	hub.PushToUser("user-1", dto.NotificationEvent{
		Type:         "assessment_completed",
		AssessmentID: "a-1",
		Status:       "completed",
	})

	var event dto.NotificationEvent
	require.NoError(t, client.ReadJSON(&event))
	assert.Equal(t, "assessment_completed", event.Type)
	assert.Equal(t, "a-1", event.AssessmentID)
	assert.Equal(t, 1, hub.ConnectionCount("user-1"))
}

func TestPushToUserSerializesConcurrentWriters(t *testing.T) {
	hub := NewHub()
	client := dialTestSocket(t, hub, "user-1")

	// Assignment pushes come from request goroutines while the redis bridge
	// fans out pipeline events; both paths hit the same socket.
	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.PushToUser("user-1", dto.NotificationEvent{
				Type:         "assessment_completed",
				AssessmentID: fmt.Sprintf("a-%d", i),
				Status:       "completed",
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, writers)
	for i := 0; i < writers; i++ {
		var event dto.NotificationEvent
		require.NoError(t, client.ReadJSON(&event))
		seen[event.AssessmentID] = struct{}{}
	}
	assert.Len(t, seen, writers)
	assert.Equal(t, 1, hub.ConnectionCount("user-1"))
}
