package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"catering/internal/deliverytime"
	"catering/internal/domain/model"
	"catering/internal/middleware"
	"catering/internal/pricing"
	"catering/internal/repository"
	"catering/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	// devのときだけ
	Detail string `json:"detail,omitempty"`
}

// usecaseのエラーをHTTPに変換する。想定外は500で中身は出さない。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	var (
		ve          *usecase.ValidationError
		mte         *deliverytime.MalformedTimeError
		notFound    *pricing.ItemNotFoundError
		unavailable *pricing.ItemUnavailableError
		illegal     *model.IllegalTransitionError
		invalid     *model.InvalidStatusError
		pe          *usecase.PersistenceError
	)

	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.As(err, &mte):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  mte.Error(),
			Fields: map[string]string{"delivery_time": "Delivery time must be HH:MM, HH:MM:SS or H:MM AM/PM"},
		})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: notFound.Error()})
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: unavailable.Error()})
	case errors.As(err, &illegal):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: illegal.Error()})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalid.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "order was modified by another request"})
	case errors.As(err, &pe):
		slog.ErrorContext(c.Request().Context(), "persistence error", "op", pe.Op, "err", pe.Err, "path", c.Path())
		resp := ErrorResponse{Error: "internal error"}
		if c.Echo().Debug {
			resp.Detail = pe.Error()
		}
		return c.JSON(http.StatusInternalServerError, resp)
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unexpected error", "err", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// 未指定ならdef、数値でなければfalse
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// 未指定ならnil、数値でなければfalse
func queryInt64Ptr(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &i, true
}

// RFC3339。未指定ならnil
func queryTime(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, false
	}
	return &tm, true
}

func paramID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
