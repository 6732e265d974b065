package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/service"
)

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid input", Details: msg})
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func optionalQueryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func queryTime(c *gin.Context, name string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.Query(name))
	if err != nil {
		badRequest(c, name+" must be RFC3339")
		return time.Time{}, false
	}
	return t, true
}

// GET /api/v1/salons/:salonId/services/:serviceId/slots?from=&to=&staffId=&page=&pageSize=
func (h *Handler) listSlots(c *gin.Context) {
	salonID, ok := pathID(c, "salonId")
	if !ok {
		return
	}
	serviceID, ok := pathID(c, "serviceId")
	if !ok {
		return
	}
	staffID, ok := optionalQueryID(c, "staffId")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	size, ok := queryInt(c, "pageSize")
	if !ok {
		return
	}

	resp, err := h.booking.ListSlots(c.Request.Context(), service.ListSlotsRequest{
		SalonID:   salonID,
		ServiceID: serviceID,
		StaffID:   staffID,
		From:      c.Query("from"),
		To:        c.Query("to"),
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/salons/:salonId/services/:serviceId/effective?staffId=
func (h *Handler) resolveService(c *gin.Context) {
	salonID, ok := pathID(c, "salonId")
	if !ok {
		return
	}
	serviceID, ok := pathID(c, "serviceId")
	if !ok {
		return
	}
	staffID, ok := optionalQueryID(c, "staffId")
	if !ok {
		return
	}

	resp, err := h.booking.ResolveService(c.Request.Context(), service.ResolveServiceRequest{
		SalonID:   salonID,
		ServiceID: serviceID,
		StaffID:   staffID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listSalonServices(c *gin.Context) {
	salonID, ok := pathID(c, "salonId")
	if !ok {
		return
	}

	items, err := h.booking.ListSalonServices(c.Request.Context(), salonID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) validateSlot(c *gin.Context) {
	var req service.SlotRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.booking.ValidateSlot(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createAppointment(c *gin.Context) {
	var req service.SlotRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.booking.CreateAppointment(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getAppointment(c *gin.Context) {
	h.byID(c, h.booking.GetAppointment)
}

func (h *Handler) confirmAppointment(c *gin.Context) {
	h.byID(c, h.booking.ConfirmAppointment)
}

func (h *Handler) completeAppointment(c *gin.Context) {
	h.byID(c, h.booking.CompleteAppointment)
}

func (h *Handler) markNoShow(c *gin.Context) {
	h.byID(c, h.booking.MarkNoShow)
}

func (h *Handler) byID(c *gin.Context, call func(ctx context.Context, id uuid.UUID) (service.AppointmentDTO, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := call(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) cancelAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Actor service.ActorDTO `json:"actor"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.booking.CancelAppointment(c.Request.Context(), service.AppointmentRequest{
		AppointmentID: id,
		Actor:         body.Actor,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) rescheduleAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.RescheduleRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.AppointmentID = id

	resp, err := h.booking.RescheduleAppointment(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/clients/:clientId/appointments?from=&to=&page=&pageSize=
func (h *Handler) listClientAppointments(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	size, ok := queryInt(c, "pageSize")
	if !ok {
		return
	}

	resp, err := h.booking.ListClientAppointments(c.Request.Context(), service.ClientAppointmentsRequest{
		ClientID: clientID,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindOptionalJSON допускает пустое тело запроса.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}
