package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/render"
	"github.com/1imo/rooming-service/internal/rooming/repository"
	"github.com/1imo/rooming-service/internal/rooming/service"
)

var errInvalidID = errors.New("invalid id")

// statusFor maps domain errors to HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, render.ErrNothingToRender):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRoomMismatch):
		return http.StatusConflict
	case errors.Is(err, geometry.ErrInsufficientVertices),
		errors.Is(err, geometry.ErrInvalidPoint),
		errors.Is(err, geometry.ErrInvalidConstraint),
		errors.Is(err, geometry.ErrIndexOutOfRange),
		errors.Is(err, render.ErrUnsupportedPath),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c fiber.Ctx, log *zap.SugaredLogger, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func roomID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
