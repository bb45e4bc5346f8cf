package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialHub(t *testing.T, hub *Hub, userId string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConn(conn)
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	require.NoError(t, ws.WriteJSON(map[string]string{"userId": userId}))

	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(userId) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never joined room %s", userId)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ws
}

func TestHubDeliversToOwningUserOnly(t *testing.T) {
	bus := EventBus.New()
	hub, err := NewHub(bus)
	require.NoError(t, err)
	defer hub.Close()

	owner := dialHub(t, hub, "u1")
	other := dialHub(t, hub, "u2")

	bus.Publish(TopicOrderStatus, StatusUpdateEvent{
		UserId:      "u1",
		OrderId:     42,
		OrderNumber: "ORD-1-abcdefghi",
		NewStatus:   domain.OrderStatusProcessing,
		Order:       &domain.Order{ID: 42, OrderId: "ORD-1-abcdefghi"},
	})

	require.NoError(t, owner.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := owner.ReadMessage()
	require.NoError(t, err)

	var evt map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(payload, &evt))
	assert.Equal(t, "orderStatusUpdate", evt["type"])
	assert.Equal(t, "42", evt["orderId"])
	assert.Equal(t, "ORD-1-abcdefghi", evt["orderNumber"])
	assert.Equal(t, domain.OrderStatusProcessing, evt["newStatus"])
	assert.NotNil(t, evt["order"])

	// The other room must stay silent.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "event leaked into another user's room")
}

func TestHubRoomMembership(t *testing.T) {
	bus := EventBus.New()
	hub, err := NewHub(bus)
	require.NoError(t, err)
	defer hub.Close()

	ws := dialHub(t, hub, "u9")
	assert.Equal(t, 1, hub.RoomSize("u9"))

	require.NoError(t, ws.Close())
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("u9") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("room not cleaned up after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCloseWithLiveClients(t *testing.T) {
	bus := EventBus.New()
	hub, err := NewHub(bus)
	require.NoError(t, err)

	dialHub(t, hub, "u1")
	dialHub(t, hub, "u1")
	dialHub(t, hub, "u2")

	done := make(chan struct{})
	go func() {
		hub.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close hung with live clients joined")
	}
	assert.Zero(t, hub.RoomSize("u1"))
	assert.Zero(t, hub.RoomSize("u2"))
}

func TestPublishToEmptyRoomIsSilent(t *testing.T) {
	hub, err := NewHub(nil)
	require.NoError(t, err)
	defer hub.Close()

	// Must not panic or block.
	hub.Publish("ghost", StatusUpdateEvent{OrderId: 1, OrderNumber: "ORD-1-aaaaaaaaa", NewStatus: "pending"})
	assert.Zero(t, hub.RoomSize("ghost"))
}
