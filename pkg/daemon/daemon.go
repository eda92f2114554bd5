// Package daemon exposes discovery and device control as a small HTTP
// JSON API so a frontend (or anything that would rather not shell out
// to the CLI) can drive devices over a long-running server.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	kasactl "github.com/swelldreams/kasactl/internal"
	"github.com/swelldreams/kasactl/pkg/tplink"
)

// Server holds the outbound exchange settings shared by all handlers.
type Server struct {
	DevicePort int
	Timeout    time.Duration
}

// ListenAndServe runs the API on endpoint until the listener fails.
func (s *Server) ListenAndServe(endpoint string) error {
	log.Info().Str("endpoint", endpoint).Msg("starting daemon")
	err := http.ListenAndServe(endpoint, s.Router())
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router builds the chi route tree.
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(60*time.Second),
	)

	router.Get("/discover", s.handleDiscover)
	router.Get("/scan", s.handleScan)
	router.Route("/devices/{host}", func(r chi.Router) {
		r.Get("/info", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.GetInfo() }))
		r.Get("/state", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.GetState() }))
		r.Get("/children", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.GetChildren() }))
		r.Get("/emeter", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.EnergyMeter() }))
		r.Post("/on", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.TurnOn() }))
		r.Post("/off", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.TurnOff() }))
		r.Post("/toggle", s.deviceHandler(func(d *tplink.Device) (any, *tplink.Error) { return d.Toggle() }))
		r.Post("/led", s.handleLED)
		r.Post("/reboot", s.handleReboot)
	})
	return router
}

// device builds the handle for one request; the child query parameter
// narrows strip operations to a single outlet.
func (s *Server) device(r *http.Request) *tplink.Device {
	return &tplink.Device{
		Addr:    chi.URLParam(r, "host"),
		Port:    s.DevicePort,
		ChildID: r.URL.Query().Get("child"),
		Timeout: s.Timeout,
	}
}

func (s *Server) deviceHandler(op func(*tplink.Device) (any, *tplink.Error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := op(s.device(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	timeout := kasactl.DefaultDiscoverTimeout
	if v := r.URL.Query().Get("timeout"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid timeout: %s", v))
			return
		}
		timeout = time.Duration(seconds) * time.Second
	}

	devices, err := kasactl.DiscoverBroadcast(r.Context(), kasactl.DiscoverParams{
		Timeout: timeout,
		Port:    s.DevicePort,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("discovery failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	params := kasactl.ScanParams{
		Subnet: r.URL.Query().Get("subnet"),
		Port:   s.DevicePort,
	}
	if v := r.URL.Query().Get("begin"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid begin: %s", v))
			return
		}
		params.Begin = n
	}
	if v := r.URL.Query().Get("end"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid end: %s", v))
			return
		}
		params.End = n
	}
	writeJSON(w, http.StatusOK, kasactl.ScanSubnet(r.Context(), params))
}

func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	var on bool
	switch r.URL.Query().Get("on") {
	case "true", "1", "on":
		on = true
	case "false", "0", "off":
		on = false
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("led requires on=true or on=false"))
		return
	}

	result, err := s.device(r).SetLED(on)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	delay := 1
	if v := r.URL.Query().Get("delay"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid delay: %s", v))
			return
		}
		delay = n
	}

	device := s.device(r)
	if err := device.Reboot(delay); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rebooting": device.Addr, "delay": delay})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err *tplink.Error) {
	status := http.StatusBadGateway
	switch err.Kind {
	case tplink.KindNotFound:
		status = http.StatusNotFound
	case tplink.KindUnsupported:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"error": err})
}

func errorBody(format string, args ...any) map[string]any {
	return map[string]any{"error": map[string]any{
		"kind":    "bad_request",
		"message": fmt.Sprintf(format, args...),
	}}
}
