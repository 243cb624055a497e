package timeline

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/x/content"
	"github.com/totegamma/mjtimeline/x/wallet"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	View(c echo.Context) error
	CreateTimeline(c echo.Context) error
	Fetch(c echo.Context) error
	Search(c echo.Context) error
	CreatePost(c echo.Context) error
	DeletePost(c echo.Context) error
	Like(c echo.Context) error
	Unlike(c echo.Context) error
	AddComment(c echo.Context) error
	Validate(c echo.Context) error
	Connect(c echo.Context) error
	Disconnect(c echo.Context) error
}

type handler struct {
	service Service
	wallet  wallet.Wallet
}

// NewHandler creates a new handler
func NewHandler(service Service, wallet wallet.Wallet) Handler {
	return &handler{service: service, wallet: wallet}
}

// View returns the current engine view
func (h handler) View(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Timeline.Handler.View")
	defer span.End()

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": h.service.View()})
}

func (h handler) CreateTimeline(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.CreateTimeline")
	defer span.End()

	err := h.service.CreateTimeline(ctx)
	return h.respond(c, err)
}

func (h handler) Fetch(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Fetch")
	defer span.End()

	err := h.service.FetchPosts(ctx)
	return h.respond(c, err)
}

// Search returns active posts matching q
func (h handler) Search(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Search")
	defer span.End()

	posts := h.service.Search(c.QueryParam("q"))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": posts})
}

func (h handler) CreatePost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.CreatePost")
	defer span.End()

	var request contentRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}

	err = h.service.CreatePost(ctx, request.Content)
	return h.respond(c, err)
}

func (h handler) DeletePost(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.DeletePost")
	defer span.End()

	id, err := postID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid post id"})
	}

	err = h.service.DeletePost(ctx, id)
	return h.respond(c, err)
}

func (h handler) Like(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Like")
	defer span.End()

	id, err := postID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid post id"})
	}

	err = h.service.LikePost(ctx, id)
	return h.respond(c, err)
}

func (h handler) Unlike(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Unlike")
	defer span.End()

	id, err := postID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid post id"})
	}

	err = h.service.UnlikePost(ctx, id)
	return h.respond(c, err)
}

func (h handler) AddComment(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.AddComment")
	defer span.End()

	id, err := postID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid post id"})
	}

	var request contentRequest
	err = c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}

	err = h.service.AddComment(ctx, id, request.Content)
	return h.respond(c, err)
}

// Validate checks content without touching the engine
func (h handler) Validate(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Validate")
	defer span.End()

	var request contentRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}

	response := validateResponse{
		Valid:  true,
		Length: content.Length(request.Content),
	}

	var verr core.ErrorValidation
	if errors.As(content.Validate(request.Content), &verr) {
		response.Valid = false
		response.Kind = verr.Kind.String()
		response.Message = verr.Error()
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": response})
}

// Connect connects the wallet and mounts its timeline
func (h handler) Connect(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Connect")
	defer span.End()

	err := h.wallet.Connect()
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	err = h.service.Mount(ctx)
	return h.respond(c, err)
}

func (h handler) Disconnect(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Timeline.Handler.Disconnect")
	defer span.End()

	h.wallet.Disconnect()
	err := h.service.Disconnect(ctx)
	return h.respond(c, err)
}

func (h handler) respond(c echo.Context, err error) error {
	if err != nil {
		return c.JSON(StatusOf(err), echo.Map{"status": "error", "message": err.Error(), "content": h.service.View()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": h.service.View()})
}

// StatusOf maps engine errors to HTTP status codes
func StatusOf(err error) int {
	var gerr *core.ErrorGateway
	switch {
	case errors.As(err, &core.ErrorValidation{}),
		errors.As(err, &core.ErrorNoTimeline{}),
		errors.As(err, &core.ErrorInvalidArgument{}):
		return http.StatusBadRequest
	case errors.As(err, &core.ErrorNotConnected{}):
		return http.StatusUnauthorized
	case errors.As(err, &core.ErrorNotFound{}):
		return http.StatusNotFound
	case errors.As(err, &core.ErrorInvalidStateTransition{}):
		return http.StatusConflict
	case errors.As(err, &core.ErrorRequestPending{}):
		return http.StatusTooManyRequests
	case errors.As(err, &core.ErrorTimeout{}):
		return http.StatusGatewayTimeout
	case errors.As(err, &gerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func postID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
