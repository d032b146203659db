package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// EventsHandler streams broadcast events over server-sent events. Clients
// name the channels they want, comma separated, e.g.
// /api/events?channels=bus_location_3,bus_owner_3. A connection that stays
// idle past the configured timeout is evicted so dead subscribers do not
// accumulate in the hub.
func (s *Server) EventsHandler(c echo.Context) error {
	raw := c.QueryParam("channels")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channels query parameter is required")
	}

	var channels []string
	for _, ch := range strings.Split(raw, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "channels query parameter is required")
	}

	sub := s.hub.Subscribe(channels...)
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	idle := time.NewTimer(s.streamIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-idle.C:
			s.logger.Debug().
				Str("subscriber_id", sub.ID()).
				Msg("evicting idle stream subscriber")
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error().Err(err).Msg("marshaling stream event")
				continue
			}

			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.streamIdleTimeout)
		}
	}
}
