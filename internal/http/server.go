package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/lokao-advisor/internal/catalog"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/matching"
	"github.com/denisok6893-rgb/lokao-advisor/internal/payment"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
	"github.com/denisok6893-rgb/lokao-advisor/internal/report"
)

const defaultMaxBody = 1 << 20

type Deps struct {
	Catalog      *catalog.Catalog
	Engine       *matching.Engine
	Reports      *report.Builder
	Payments     *payment.Service
	Pilot        *pilot.Service
	AdminKey     string
	PriceCents   int
	MaxBodyBytes int64
	Logger       *logging.Logger
}

type Server struct {
	catalog    *catalog.Catalog
	engine     *matching.Engine
	reports    *report.Builder
	payments   *payment.Service
	pilot      *pilot.Service
	adminKey   string
	priceCents int
	maxBody    int64
	log        *logging.Logger
}

func NewServer(d Deps) *Server {
	s := &Server{
		catalog:    d.Catalog,
		engine:     d.Engine,
		reports:    d.Reports,
		payments:   d.Payments,
		pilot:      d.Pilot,
		adminKey:   d.AdminKey,
		priceCents: d.PriceCents,
		maxBody:    d.MaxBodyBytes,
		log:        logging.OrNop(d.Logger).With("component", "http"),
	}
	if s.engine == nil {
		s.engine = matching.NewEngine(matching.DefaultPolicy())
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBody
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(securityHeaders())
	r.Use(limitBody(s.maxBody))

	r.GET("/health", s.handleHealth)
	r.GET("/bairros", s.handleNeighborhoods)
	r.POST("/score", s.handleScore)
	r.GET("/relatorio", s.handleReport)
	r.POST("/relatorio", s.handleReport)

	r.GET("/pagar", s.handlePay)
	r.GET("/pago", s.handlePaid)
	r.GET("/pagamento/status", s.handlePaymentStatus)
	r.POST("/webhook/mercadopago", s.handleWebhook)

	r.GET("/piloto", s.handlePilot)
	r.GET("/piloto/feedback", s.handlePilotFeedback)
	r.POST("/piloto/feedback", s.handlePilotFeedback)
	r.POST("/piloto/evento", s.handlePilotEvent)

	admin := r.Group("/piloto", requireAdminKey(s.adminKey))
	admin.GET("/metricas", s.handlePilotMetrics)
	admin.GET("/admin", s.handlePilotAdmin)
	admin.POST("/admin/liberar-cpf", s.handlePilotRelease)

	r.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "not_found", errNotFound)
	})
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok", "bairros": s.catalog.Len()})
}

func (s *Server) handleNeighborhoods(c *gin.Context) {
	names := s.catalog.Names()
	if names == nil {
		names = []string{}
	}
	RespondOK(c, gin.H{"bairros": names})
}
