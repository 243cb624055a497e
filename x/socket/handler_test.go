package socket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/mjtimeline/x/timeline"
	"github.com/totegamma/mjtimeline/x/timeline/mock"
)

func TestViewStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	views := make(chan timeline.View, 1)
	cancelled := make(chan struct{})

	service := mock_timeline.NewMockService(ctrl)
	service.EXPECT().Watch().Return((<-chan timeline.View)(views), func() { close(cancelled) })
	service.EXPECT().View().Return(timeline.View{TimelineID: "0xabc"})

	manager := NewManager()
	h := NewHandler(manager, service)

	e := echo.New()
	e.GET("/socket", h.Connect)
	server := httptest.NewServer(e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)

	var first timeline.View
	assert.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "0xabc", first.TimelineID)
	assert.Equal(t, int64(1), manager.CurrentConnectionCount())

	views <- timeline.View{TimelineID: "0xabc", IsFetchingPosts: true}

	var second timeline.View
	assert.NoError(t, conn.ReadJSON(&second))
	assert.True(t, second.IsFetchingPosts)

	conn.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("watch was not cancelled")
	}

	assert.Eventually(t, func() bool {
		return manager.CurrentConnectionCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestManager(t *testing.T) {
	manager := NewManager()
	assert.Equal(t, int64(0), manager.CurrentConnectionCount())

	// removing an unknown id is a no-op
	manager.Remove("unknown")
	assert.Equal(t, int64(0), manager.CurrentConnectionCount())
}
