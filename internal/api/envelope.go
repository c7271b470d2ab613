package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func okPage(c echo.Context, data any, count int) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
