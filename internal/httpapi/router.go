package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/service"
)

type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// лимит запросов с одного IP, 0 отключает лимит
	RequestsPerMin int
	// Health проверяет зависимости для /health. Если nil, /health всегда ok.
	Health func(ctx context.Context) error
}

type Handler struct {
	booking *service.Booking
	log     *zap.Logger
}

// NewRouter собирает gin.Engine с middleware и маршрутами /api/v1.
func NewRouter(booking *service.Booking, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{booking: booking, log: log}

	r := gin.New()
	r.Use(recovery(log))
	r.Use(requestLogger(log))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	if opts.RequestsPerMin > 0 {
		r.Use(newRateLimiter(opts.RequestsPerMin, log).middleware())
	}

	r.GET("/health", healthHandler(opts.Health))

	api := r.Group("/api/v1")
	{
		api.GET("/salons/:salonId/services", h.listSalonServices)
		api.GET("/salons/:salonId/services/:serviceId/slots", h.listSlots)
		api.GET("/salons/:salonId/services/:serviceId/effective", h.resolveService)

		api.POST("/slots/validate", h.validateSlot)

		api.POST("/appointments", h.createAppointment)
		api.GET("/appointments/:id", h.getAppointment)
		api.POST("/appointments/:id/cancel", h.cancelAppointment)
		api.POST("/appointments/:id/reschedule", h.rescheduleAppointment)
		api.POST("/appointments/:id/confirm", h.confirmAppointment)
		api.POST("/appointments/:id/complete", h.completeAppointment)
		api.POST("/appointments/:id/no-show", h.markNoShow)

		api.GET("/clients/:clientId/appointments", h.listClientAppointments)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "details": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
