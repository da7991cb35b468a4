package web

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/nanicare/nani-backend/pkg/exchange"
	"github.com/nanicare/nani-backend/pkg/openai"
)

// heartbeatInterval paces SSE keep-alive comments so dead connections
// are noticed even when no events fire.
const heartbeatInterval = 15 * time.Second

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// handleHealth reports the configured capabilities. No side effects.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "ok",
		"sttModel":     s.cfg.STTModel,
		"genModel":     s.cfg.GenModel,
		"ttsModel":     s.cfg.TTSModel,
		"voice":        s.cfg.Voice,
		"format":       s.cfg.AudioFormat,
		"sheetPolling": s.cfg.SheetEnabled(),
	})
}

// handleDebugSheet exposes a snapshot of the poller state.
func (s *Server) handleDebugSheet(c *fiber.Ctx) error {
	resp := fiber.Map{
		"sheetId":     s.cfg.SheetID,
		"gid":         s.cfg.SheetGID,
		"fetchedAt":   nil,
		"latestEntry": nil,
	}
	if s.poller != nil {
		if entry, fetchedAt, ok := s.poller.Snapshot(); ok {
			resp["fetchedAt"] = fetchedAt.UTC().Format(time.RFC3339)
			resp["latestEntry"] = entry
		}
	}
	return c.JSON(resp)
}

// handleEventStream opens the SSE push channel. The connected
// acknowledgement frame is already queued on subscribe; after that the
// client sees zero or more pillDetected frames until it disconnects.
func (s *Server) handleEventStream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := s.events.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.events.Unsubscribe(sub)

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case msg, ok := <-sub.Messages():
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
				if err := w.Flush(); err != nil {
					s.logger.Warn("event stream write failed, dropping subscriber",
						"id", sub.ID, "error", err)
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// wsFrame is the websocket rendition of an event frame.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleEventsWS mirrors the event stream over a websocket.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	sub := s.events.Subscribe()
	defer s.events.Unsubscribe(sub)

	// Read pump: we expect nothing from clients, but reading detects
	// disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			frame, err := json.Marshal(wsFrame{Event: msg.Event, Data: msg.Data})
			if err != nil {
				continue
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Warn("websocket write failed, dropping subscriber",
					"id", sub.ID, "error", err)
				return
			}
		case <-done:
			return
		}
	}
}

// handleVoiceExchange runs one transcribe→generate→synthesize cycle.
func (s *Server) handleVoiceExchange(c *fiber.Ctx) error {
	req := exchange.Request{
		Text:    c.FormValue("text"),
		Context: c.FormValue("context"),
	}

	if fh, err := c.FormFile("audio"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return s.exchangeError(c, fmt.Errorf("open upload: %w", err))
		}
		audio, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return s.exchangeError(c, fmt.Errorf("read upload: %w", err))
		}
		req.Audio = audio
		req.MIMEType = fh.Header.Get("Content-Type")
		req.Filename = fh.Filename

		s.logger.Info("audio upload received",
			"name", fh.Filename,
			"mime", req.MIMEType,
			"bytes", len(audio),
		)
	} else {
		s.logger.Debug("no audio file in request")
	}

	res, err := s.orch.Handle(c.UserContext(), req)
	if err != nil {
		return s.exchangeError(c, err)
	}

	return c.JSON(fiber.Map{
		"text":        res.Text,
		"audioFormat": res.AudioFormat,
		"audioBase64": base64.StdEncoding.EncodeToString(res.Audio),
	})
}

// exchangeError maps an exchange failure to a structured JSON error.
// Client-input problems are 400; upstream provider errors mirror the
// provider's status; everything else is 500.
func (s *Server) exchangeError(c *fiber.Ctx, err error) error {
	s.logger.Error("voice exchange failed", "error", err)

	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	switch {
	case errors.Is(err, exchange.ErrMissingInput), errors.Is(err, exchange.ErrEmptyTranscript):
		status = fiber.StatusBadRequest
	default:
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode > 0 {
				status = apiErr.StatusCode
			}
			if apiErr.Detail != nil {
				body["details"] = apiErr.Detail
			}
		}
	}

	return c.Status(status).JSON(body)
}
