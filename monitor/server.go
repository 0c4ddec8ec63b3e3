package monitor

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const DEFAULT_INVOICE_LIMIT = 100

type Server struct {
	monitor *Monitor
}

func NewServer(monitor *Monitor) *Server {
	return &Server{
		monitor: monitor,
	}
}

func (s *Server) RunWithContext(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestId())

	// Setup routes
	router.GET("/invoices/enriched", s.getEnrichedInvoices)
	router.GET("/invoices", s.getInvoices)
	router.GET("/intents", s.getIntents)
	router.GET("/intents/:id", s.getIntent)
	router.POST("/intents", s.createIntent)
	router.GET("/routes", s.getRoutes)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful server shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.monitor.logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	// Start server
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-Id", id)
		s.monitor.logger.Debug().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("handling request")
		c.Next()
	}
}

func (s *Server) getEnrichedInvoices(c *gin.Context) {
	limit := DEFAULT_INVOICE_LIMIT
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	invoices, err := s.monitor.ledger.GetInvoices(limit)
	if err != nil {
		s.monitor.logger.Error().Err(err).Msg("failed to get invoices")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get invoices"})
		return
	}

	batch := s.monitor.EnrichInvoices(invoices, time.Now().UnixMilli())
	if len(batch.Simplified) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":  "no invoices found",
			"invoices": batch.Simplified,
			"table":    batch.Tabular,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": batch.Simplified, "table": batch.Tabular})
}

func (s *Server) getInvoices(c *gin.Context) {
	limit := DEFAULT_INVOICE_LIMIT
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	invoices, err := s.monitor.ledger.GetInvoices(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) getIntents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	body, err := s.monitor.ledger.GetIntents(c.Query("statuses"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get intents"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) getIntent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent id is required"})
		return
	}

	body, err := s.monitor.ledger.GetIntent(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get intent"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) createIntent(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	body, err := s.monitor.ledger.CreateIntent(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create intent"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) getRoutes(c *gin.Context) {
	body, err := s.monitor.ledger.GetRoutes(c.Query("origin"), c.Query("destination"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get routes"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
