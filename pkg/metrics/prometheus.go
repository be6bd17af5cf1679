package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler handles Prometheus metrics HTTP requests
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{
		collector: collector,
	}
}

// ServeHTTP handles HTTP requests for metrics
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var output strings.Builder

	output.WriteString("# HELP dabmux_frames_total Total ETI frames assembled\n")
	output.WriteString("# TYPE dabmux_frames_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_frames_total %d\n", h.collector.GetFrameCount()))

	output.WriteString("# HELP dabmux_fic_undelivered_total Total FIGs that missed their repetition deadline\n")
	output.WriteString("# TYPE dabmux_fic_undelivered_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_fic_undelivered_total %d\n", h.collector.GetUndeliveredFIGs()))

	output.WriteString("# HELP dabmux_input_underruns_total Total subchannel input underrun events\n")
	output.WriteString("# TYPE dabmux_input_underruns_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_input_underruns_total %d\n", h.collector.GetInputUnderruns()))

	output.WriteString("# HELP dabmux_edi_fragments_sent_total Total EDI/PFT fragments transmitted\n")
	output.WriteString("# TYPE dabmux_edi_fragments_sent_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_edi_fragments_sent_total %d\n", h.collector.GetEDIFragmentsSent()))

	output.WriteString("# HELP dabmux_edi_bytes_sent_total Total EDI/PFT bytes transmitted\n")
	output.WriteString("# TYPE dabmux_edi_bytes_sent_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_edi_bytes_sent_total %d\n", h.collector.GetEDIBytesSent()))

	output.WriteString("# HELP dabmux_carousel_reloads_total Total MOT carousel directory rescans\n")
	output.WriteString("# TYPE dabmux_carousel_reloads_total counter\n")
	output.WriteString(fmt.Sprintf("dabmux_carousel_reloads_total %d\n", h.collector.GetCarouselReloads()))

	output.WriteString("# HELP dabmux_carousel_objects Current MOT object count per component\n")
	output.WriteString("# TYPE dabmux_carousel_objects gauge\n")
	for uid, n := range h.collector.GetCarouselObjects() {
		output.WriteString(fmt.Sprintf("dabmux_carousel_objects{component=%q} %d\n", uid, n))
	}

	output.WriteString("# HELP dabmux_input_state Current subchannel input monitor state (1=reported value)\n")
	output.WriteString("# TYPE dabmux_input_state gauge\n")
	for uid, state := range h.collector.GetInputStates() {
		output.WriteString(fmt.Sprintf("dabmux_input_state{subchannel=%q,state=%q} 1\n", uid, state))
	}

	w.Write([]byte(output.String()))
}

// PrometheusServer is an HTTP server for Prometheus metrics
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	// Use a listener to get the actual port (useful for testing with port 0)
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler: mux,
	}

	s.log.Info("Starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
