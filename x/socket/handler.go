package socket

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/mjtimeline/x/timeline"
)

var tracer = otel.Tracer("socket")

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler is the interface for handling websocket requests
type Handler interface {
	Connect(c echo.Context) error
}

type handler struct {
	manager Manager
	service timeline.Service
}

// NewHandler creates a new handler
func NewHandler(manager Manager, service timeline.Service) Handler {
	return &handler{manager: manager, service: service}
}

// Connect upgrades the request and writes the engine view on every change
func (h handler) Connect(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Socket.Handler.Connect")

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		span.RecordError(err)
		span.End()
		slog.ErrorContext(ctx, fmt.Sprintf("failed to upgrade websocket: %v", err), slog.String("module", "socket"))
		return nil
	}
	span.End()

	id := h.manager.Add(ws)
	defer h.manager.Remove(id)

	slog.InfoContext(ctx, "view stream opened", slog.String("connection", id), slog.String("module", "socket"))
	defer slog.InfoContext(ctx, "view stream closed", slog.String("connection", id), slog.String("module", "socket"))

	views, cancel := h.service.Watch()
	defer cancel()

	// clients only send close frames; the reader notices them
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := write(ws, h.service.View()); err != nil {
		return nil
	}

	for {
		select {
		case <-closed:
			return nil
		case view, ok := <-views:
			if !ok {
				return nil
			}
			if err := write(ws, view); err != nil {
				slog.DebugContext(ctx, fmt.Sprintf("failed to write view: %v", err), slog.String("module", "socket"))
				return nil
			}
		}
	}
}

func write(ws *websocket.Conn, view timeline.View) error {
	ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ws.WriteJSON(view)
}
