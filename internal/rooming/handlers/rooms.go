package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
	"github.com/1imo/rooming-service/internal/rooming/render"
	"github.com/1imo/rooming-service/internal/rooming/repository"
	"github.com/1imo/rooming-service/internal/rooming/service"
)

// ============================================================
// Room Handler
// ============================================================

type RoomHandler struct {
	repo     *repository.Repository
	sessions *service.SessionManager
	renderer *render.Renderer
	opts     geometry.Options
	log      *zap.SugaredLogger
}

func NewRoomHandler(repo *repository.Repository, sessions *service.SessionManager, renderer *render.Renderer, opts geometry.Options, log *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{repo: repo, sessions: sessions, renderer: renderer, opts: opts, log: log}
}

type roomRequest struct {
	Name              string                      `json:"name"`
	CustomerID        string                      `json:"customer_id"`
	CompanyID         string                      `json:"company_id"`
	Notes             string                      `json:"notes"`
	FloorType         string                      `json:"floor_type"`
	Offset            geometry.Point              `json:"offset"`
	Points            []geometry.Point            `json:"points"`
	AngleConstraints  []geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints []geometry.LengthConstraint `json:"lengthConstraints"`
}

type roomUpdateRequest struct {
	Name              *string                      `json:"name"`
	Notes             *string                      `json:"notes"`
	FloorType         *string                      `json:"floor_type"`
	Offset            *geometry.Point              `json:"offset"`
	Points            []geometry.Point             `json:"points"`
	AngleConstraints  *[]geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints *[]geometry.LengthConstraint `json:"lengthConstraints"`
}

type importRequest struct {
	Name       string  `json:"name"`
	CustomerID string  `json:"customer_id"`
	CompanyID  string  `json:"company_id"`
	Path       string  `json:"path"`
	Document   string  `json:"svg"`
	ElementID  string  `json:"element_id"`
	Scale      float64 `json:"scale"` // path units per metre
}

// Create stores a new room after checking its outline and constraints.
func (h *RoomHandler) Create(c fiber.Ctx) error {
	var req roomRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Name == "" || req.CustomerID == "" || req.CompanyID == "" {
		return badRequest(c, "name, customer_id and company_id required")
	}
	e, err := geometry.Load(req.Points, req.AngleConstraints, req.LengthConstraints, h.opts)
	if err != nil {
		return fail(c, h.log, err)
	}

	room, err := h.repo.Create(context.Background(), &models.Room{
		Name:              req.Name,
		CustomerID:        req.CustomerID,
		CompanyID:         req.CompanyID,
		Notes:             req.Notes,
		FloorType:         req.FloorType,
		Offset:            req.Offset,
		Points:            req.Points,
		AngleConstraints:  e.AngleConstraints(),
		LengthConstraints: e.LengthConstraints(),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	h.log.Infow("room created", "room", room.ID, "customer", room.CustomerID)
	return c.Status(http.StatusCreated).JSON(room)
}

// Update applies a partial update. A new outline without constraints
// clears the old constraints, since their indices no longer apply.
func (h *RoomHandler) Update(c fiber.Ctx) error {
	id, err := roomID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req roomUpdateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}

	current, err := h.repo.GetByID(context.Background(), id)
	if err != nil {
		return fail(c, h.log, err)
	}

	upd := models.RoomUpdate{
		Name:      req.Name,
		Notes:     req.Notes,
		FloorType: req.FloorType,
		Offset:    req.Offset,
		Points:    req.Points,
	}
	points := current.Points
	if req.Points != nil {
		points = req.Points
		upd.Constraints = true
	}
	angles, lengths := current.AngleConstraints, current.LengthConstraints
	if req.Points != nil {
		angles, lengths = nil, nil
	}
	if req.AngleConstraints != nil {
		angles = *req.AngleConstraints
		upd.Constraints = true
	}
	if req.LengthConstraints != nil {
		lengths = *req.LengthConstraints
		upd.Constraints = true
	}
	if upd.Constraints {
		e, err := geometry.Load(points, angles, lengths, h.opts)
		if err != nil {
			return fail(c, h.log, err)
		}
		upd.AngleConstraints, upd.LengthConstraints = e.AngleConstraints(), e.LengthConstraints()
	}

	room, err := h.repo.Update(context.Background(), id, upd)
	if err != nil {
		return fail(c, h.log, err)
	}
	// Drafts are tied to the version they started from; this one is gone.
	h.sessions.DiscardDraft(id)
	return c.JSON(room)
}

func (h *RoomHandler) Get(c fiber.Ctx) error {
	id, err := roomID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	room, err := h.repo.GetByID(context.Background(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(room)
}

func (h *RoomHandler) ListByCustomer(c fiber.Ctx) error {
	rooms, err := h.repo.ListByCustomer(context.Background(), c.Params("customerId"))
	if err != nil {
		return fail(c, h.log, err)
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	return c.JSON(rooms)
}

func (h *RoomHandler) Delete(c fiber.Ctx) error {
	id, err := roomID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.repo.Delete(context.Background(), id); err != nil {
		return fail(c, h.log, err)
	}
	h.sessions.DiscardDraft(id)
	h.log.Infow("room deleted", "room", id)
	return c.SendStatus(http.StatusNoContent)
}

// ImportSVG creates a room from an SVG outline, given either as path data
// or as a whole document. From a document the element named by element_id
// is taken, or the first outline found.
func (h *RoomHandler) ImportSVG(c fiber.Ctx) error {
	var req importRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Name == "" || req.CustomerID == "" || req.CompanyID == "" {
		return badRequest(c, "name, customer_id and company_id required")
	}
	if (req.Path == "") == (req.Document == "") {
		return badRequest(c, "exactly one of path or svg required")
	}
	if req.Scale <= 0 {
		req.Scale = render.PixelsPerMeter
	}

	points, err := h.importedOutline(req)
	if err != nil {
		return fail(c, h.log, err)
	}
	for i := range points {
		points[i].X /= req.Scale
		points[i].Y /= req.Scale
	}
	if _, err := geometry.New(points, h.opts); err != nil {
		return fail(c, h.log, err)
	}

	room, err := h.repo.Create(context.Background(), &models.Room{
		Name:       req.Name,
		CustomerID: req.CustomerID,
		CompanyID:  req.CompanyID,
		Points:     points,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	h.log.Infow("room imported from svg", "room", room.ID, "points", len(points))
	return c.Status(http.StatusCreated).JSON(room)
}

func (h *RoomHandler) importedOutline(req importRequest) ([]geometry.Point, error) {
	if req.Path != "" {
		return render.ParsePath(req.Path)
	}
	outlines, err := render.ParseDocument(strings.NewReader(req.Document))
	if err != nil {
		return nil, err
	}
	if req.ElementID == "" {
		return outlines[0].Points, nil
	}
	for _, o := range outlines {
		if o.ID == req.ElementID {
			return o.Points, nil
		}
	}
	return nil, fmt.Errorf("element %q: %w", req.ElementID, render.ErrUnsupportedPath)
}

// ============================================================
// Floorplans
// ============================================================

func (h *RoomHandler) RoomFloorplan(c fiber.Ctx) error {
	id, err := roomID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	room, err := h.repo.GetByID(context.Background(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.sendFloorplan(c, []*models.Room{room})
}

// CustomerFloorplan draws every room a company holds for a customer.
func (h *RoomHandler) CustomerFloorplan(c fiber.Ctx) error {
	rooms, err := h.repo.ListByCustomerCompany(context.Background(), c.Params("companyId"), c.Params("customerId"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.sendFloorplan(c, rooms)
}

func (h *RoomHandler) sendFloorplan(c fiber.Ctx, rooms []*models.Room) error {
	out, err := h.renderer.Render(rooms)
	if err != nil {
		return fail(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(out)
}
