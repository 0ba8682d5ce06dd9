package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-board/internal/api/dto"
	"github.com/spec-kit/flight-board/internal/repository"
	"github.com/spec-kit/flight-board/internal/service"
	apperrors "github.com/spec-kit/flight-board/pkg/util"
)

// FlightsHandler manages flight board endpoints.
type FlightsHandler struct {
	service *service.FlightService
}

// NewFlightsHandler constructs handler.
func NewFlightsHandler(flightService *service.FlightService) *FlightsHandler {
	return &FlightsHandler{service: flightService}
}

// ListFlights GET /api/flights.
func (h *FlightsHandler) ListFlights(c *fiber.Ctx) error {
	filter := repository.SearchFilter{
		Status:      c.Query("status"),
		Destination: c.Query("destination"),
	}
	flights, err := h.service.SearchFlights(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.FlightResponse, 0, len(flights))
	for i := range flights {
		items = append(items, dto.FromFlight(&flights[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateFlight POST /api/flights.
func (h *FlightsHandler) CreateFlight(c *fiber.Ctx) error {
	var req dto.CreateFlightRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	flight, err := h.service.AddFlight(c.UserContext(), service.FlightCreateInput{
		FlightNumber:  req.FlightNumber,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		Gate:          req.Gate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromFlight(flight)})
}

// DeleteFlight DELETE /api/flights/:id.
func (h *FlightsHandler) DeleteFlight(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid flight id", nil)
	}
	if err := h.service.DeleteFlight(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
