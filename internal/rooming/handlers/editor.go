package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
	"github.com/1imo/rooming-service/internal/rooming/repository"
	"github.com/1imo/rooming-service/internal/rooming/service"
)

// ============================================================
// Editor Handler
// ============================================================

// EditorHandler exposes the constraint engine through editing sessions.
// Engine refusals are not HTTP errors: the response carries accepted and
// converged flags and the outline as it stands.
type EditorHandler struct {
	repo     *repository.Repository
	sessions *service.SessionManager
	opts     geometry.Options
	log      *zap.SugaredLogger
}

func NewEditorHandler(repo *repository.Repository, sessions *service.SessionManager, opts geometry.Options, log *zap.SugaredLogger) *EditorHandler {
	return &EditorHandler{repo: repo, sessions: sessions, opts: opts, log: log}
}

type pointRequest struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type angleRequest struct {
	Degrees float64 `json:"degrees"`
}

type lengthRequest struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Meters float64 `json:"meters"`
}

type editResponse struct {
	Points            []geometry.Point            `json:"points"`
	Accepted          bool                        `json:"accepted"`
	Converged         bool                        `json:"converged"`
	Unresolved        []int                       `json:"unresolved,omitempty"`
	Reason            string                      `json:"reason,omitempty"`
	AngleConstraints  []geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints []geometry.LengthConstraint `json:"lengthConstraints"`
	Measurements      geometry.Measurements       `json:"measurements"`
}

// Open starts an editing session on a stored room.
func (h *EditorHandler) Open(c fiber.Ctx) error {
	id, err := roomID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	room, err := h.repo.GetByID(context.Background(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	state, err := h.sessions.Open(room, h.opts)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(http.StatusCreated).JSON(state)
}

func (h *EditorHandler) Get(c fiber.Ctx) error {
	state, err := h.sessions.Get(c.Params("token"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(state)
}

func (h *EditorHandler) Move(c fiber.Ctx) error {
	var req pointRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return e.MoveVertex(req.Index, geometry.Point{X: req.X, Y: req.Y})
	})
}

// Insert adds a vertex after req.Index.
func (h *EditorHandler) Insert(c fiber.Ctx) error {
	var req pointRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return e.InsertVertex(req.Index, geometry.Point{X: req.X, Y: req.Y})
	})
}

func (h *EditorHandler) DeleteVertex(c fiber.Ctx) error {
	var req pointRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return e.DeleteVertex(req.Index)
	})
}

func (h *EditorHandler) SetAngle(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "invalid vertex index")
	}
	var req angleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return e.SetAngleConstraint(index, req.Degrees)
	})
}

func (h *EditorHandler) ClearAngle(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "invalid vertex index")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return unchanged(e), e.ClearAngleConstraint(index)
	})
}

func (h *EditorHandler) SetLength(c fiber.Ctx) error {
	var req lengthRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return e.SetLengthConstraint(req.I, req.J, req.Meters)
	})
}

// ClearLength takes the edge from the i and j query parameters.
func (h *EditorHandler) ClearLength(c fiber.Ctx) error {
	i, errI := strconv.Atoi(c.Query("i"))
	j, errJ := strconv.Atoi(c.Query("j"))
	if errI != nil || errJ != nil {
		return badRequest(c, "query parameters i and j required")
	}
	return h.edit(c, func(e *geometry.Engine) (geometry.Result, error) {
		return unchanged(e), e.ClearLengthConstraint(i, j)
	})
}

// Commit writes the session's outline to the room and ends the session.
func (h *EditorHandler) Commit(c fiber.Ctx) error {
	token := c.Params("token")
	id, err := h.sessions.RoomID(token)
	if err != nil {
		return fail(c, h.log, err)
	}
	room, err := h.repo.GetByID(context.Background(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.sessions.Commit(token, room); err != nil {
		return fail(c, h.log, err)
	}

	saved, err := h.repo.Update(context.Background(), id, models.RoomUpdate{
		Points:            room.Points,
		AngleConstraints:  room.AngleConstraints,
		LengthConstraints: room.LengthConstraints,
		Constraints:       true,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.sessions.Close(token); err != nil {
		h.log.Warnw("closing committed session failed", "token", token, "error", err)
	}
	return c.JSON(saved)
}

// Close discards the session and its draft.
func (h *EditorHandler) Close(c fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("token")); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *EditorHandler) edit(c fiber.Ctx, op func(e *geometry.Engine) (geometry.Result, error)) error {
	var resp editResponse
	res, err := h.sessions.Do(c.Params("token"), func(e *geometry.Engine) (geometry.Result, error) {
		res, err := op(e)
		resp.AngleConstraints = e.AngleConstraints()
		resp.LengthConstraints = e.LengthConstraints()
		resp.Measurements = e.Measure()
		return res, err
	})
	if err != nil {
		return fail(c, h.log, err)
	}

	resp.Points = res.Points
	resp.Accepted = res.Accepted
	resp.Converged = res.Converged
	resp.Unresolved = res.Unresolved
	if res.Reason != nil {
		resp.Reason = res.Reason.Error()
	}
	return c.JSON(resp)
}

func unchanged(e *geometry.Engine) geometry.Result {
	return geometry.Result{Points: e.Points(), Accepted: true, Converged: true}
}
