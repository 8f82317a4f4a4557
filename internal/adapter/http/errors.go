package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"cv-builder/internal/codec"
	"cv-builder/internal/export"
	"cv-builder/internal/render"
	"cv-builder/internal/tailor"
	"cv-builder/internal/usecase"
	"cv-builder/pkg/ai"
	"cv-builder/pkg/ai/formatters"
)

// statusClientClosed reports a request the client abandoned before a response.
const statusClientClosed = 499

func writeError(c *fiber.Ctx, status int, code, message string, details any) error {
	response := fiber.Map{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	return c.Status(status).JSON(response)
}

// mapError maps an operation error to an HTTP status and error code.
func mapError(err error) (int, string) {
	var (
		fe    *fiber.Error
		xerr  *export.ExportError
		rerr  *render.RenderError
		merr  *tailor.MergeRejectedError
		aierr *ai.StatusError
	)
	switch {
	case errors.As(err, &fe):
		if fe.Code == fiber.StatusUnauthorized {
			return fe.Code, "UNAUTHORIZED"
		}
		return fe.Code, "INVALID_REQUEST"
	case errors.Is(err, codec.ErrParse):
		return fiber.StatusBadRequest, "PARSE_ERROR"
	case errors.Is(err, render.ErrUnsupportedFormat):
		return fiber.StatusBadRequest, "UNSUPPORTED_FORMAT"
	case errors.Is(err, usecase.ErrStale):
		return fiber.StatusConflict, "STALE_RESULT"
	case errors.As(err, &merr):
		return fiber.StatusUnprocessableEntity, "MERGE_REJECTED"
	case errors.Is(err, ai.ErrEmptyJobDescription):
		return fiber.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, formatters.ErrUnknownSection):
		return fiber.StatusNotFound, "UNKNOWN_SECTION"
	case errors.Is(err, usecase.ErrNoTailorer):
		return fiber.StatusNotImplemented, "TAILOR_UNAVAILABLE"
	case errors.As(err, &aierr), errors.Is(err, formatters.ErrNoJSON):
		return fiber.StatusBadGateway, "AI_FAILED"
	case errors.As(err, &xerr):
		switch xerr.Kind {
		case export.KindBackendUnavailable:
			return fiber.StatusServiceUnavailable, "BACKEND_UNAVAILABLE"
		case export.KindTimeout:
			return fiber.StatusGatewayTimeout, "EXPORT_TIMEOUT"
		case export.KindCanceled:
			return statusClientClosed, "EXPORT_CANCELED"
		}
		if errors.As(err, &rerr) {
			return fiber.StatusUnprocessableEntity, "RENDER_ERROR"
		}
		return fiber.StatusInternalServerError, "EXPORT_FAILED"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// ErrorHandler writes every error returned by a handler as
// {code, error, details}.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := mapError(err)
		var details any
		var perr *codec.ParseError
		var rerr *render.RenderError
		switch {
		case errors.As(err, &perr):
			details = fiber.Map{"offset": perr.Offset, "key": perr.Key}
		case errors.As(err, &rerr):
			details = fiber.Map{"sectionId": rerr.SectionID}
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http: request failed", "method", c.Method(), "path", c.Path(), "status", status, "err", err)
		}
		msg := err.Error()
		if code == "INTERNAL" {
			msg = "unexpected error"
		}
		return writeError(c, status, code, msg, details)
	}
}
