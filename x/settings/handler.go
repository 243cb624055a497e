package settings

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/mjtimeline/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	GetTheme(c echo.Context) error
	PutTheme(c echo.Context) error
}

type handler struct {
	service core.SettingsService
	wallet  core.Wallet
}

// NewHandler creates a new handler
func NewHandler(service core.SettingsService, wallet core.Wallet) Handler {
	return &handler{service: service, wallet: wallet}
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// GetTheme returns the theme of the connected account
func (h handler) GetTheme(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Settings.Handler.GetTheme")
	defer span.End()

	theme, err := h.service.LoadTheme(ctx, h.wallet.CurrentAccount())
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": theme})
}

// PutTheme stores the theme. An empty body toggles the current one.
func (h handler) PutTheme(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Settings.Handler.PutTheme")
	defer span.End()

	var request themeRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}

	owner := h.wallet.CurrentAccount()
	theme := core.Theme(request.Theme)
	if theme == "" {
		theme, err = h.service.ToggleTheme(ctx, owner)
	} else {
		err = h.service.SaveTheme(ctx, owner, theme)
	}
	if err != nil {
		span.RecordError(err)
		if errors.As(err, &core.ErrorInvalidArgument{}) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": theme})
}
