// internal/server/server.go

// Package server exposes the control surface of an attached handset:
// LCD lines, pictograms, ring tone upload and device identity over
// HTTP, plus a WebSocket stream of key, hook and ring notifications.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/treitmayr/yealink-module/internal/config"
	"github.com/treitmayr/yealink-module/internal/engine"
	"github.com/treitmayr/yealink-module/internal/lcd"
	"github.com/treitmayr/yealink-module/internal/model"
)

// Phone is the engine surface the server consumes.
type Phone interface {
	ModelName() string
	Serial() string
	Version() uint16

	Line(n int) (format, text string, err error)
	SetLine(n int, text string) error
	Icons() []lcd.Icon
	SetIcon(name string, on bool) error
	SetRingtone(buf []byte) error

	Events() <-chan engine.Event
}

// Server is the HTTP control surface for one phone.
type Server struct {
	phone Phone
	l     *log.Entry

	httpServer *http.Server
	addr       string

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*wsClient
	wsClientMu sync.Mutex
	nextWSID   int64

	running atomic.Bool
}

// New builds a server for one phone. Call Run to serve.
func New(addr string, phone Phone, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Server{
		phone:     phone,
		l:         logger,
		addr:      addr,
		wsClients: make(map[int64]*wsClient),
	}
	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return s
}

// Handler returns the route table; split out so tests can serve it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/phone/info", s.handleInfo)
	mux.HandleFunc("/phone/models", s.handleModels)
	mux.HandleFunc("/phone/lines", s.handleLines)
	mux.HandleFunc("/phone/lines/", s.handleLine)
	mux.HandleFunc("/phone/icons", s.handleIcons)
	mux.HandleFunc("/phone/icons/", s.handleIcon)
	mux.HandleFunc("/phone/ringtone", s.handleRingtone)
	mux.HandleFunc("/events", s.handleWebSocket)
	return mux
}

// Run serves until Stop. The event fan-out goroutine is started here
// and owns the engine's notification channel.
func (s *Server) Run() error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	s.running.Store(true)
	go s.broadcastLoop()

	s.l.WithField("listen", s.addr).Info("control surface up")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the listener down and disconnects every stream client.
func (s *Server) Stop() error {
	s.running.Store(false)
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Close()
	}
	s.wsClientMu.Lock()
	for _, c := range s.wsClients {
		c.close()
	}
	s.wsClientMu.Unlock()
	return err
}

// ---- REST HANDLERS ----

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.l.WithError(err).Debug("response encode")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"model":   s.phone.ModelName(),
		"serial":  s.phone.Serial(),
		"version": fmt.Sprintf("0x%04x", s.phone.Version()),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := make([]string, 0, len(model.All))
	for _, m := range model.All {
		names = append(names, m.Name)
	}
	s.writeJSON(w, http.StatusOK, names)
}

type lineBody struct {
	Line   int    `json:"line"`
	Format string `json:"format,omitempty"`
	Text   string `json:"text"`
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var lines []lineBody
	for n := 1; ; n++ {
		format, text, err := s.phone.Line(n)
		if err != nil {
			break
		}
		lines = append(lines, lineBody{Line: n, Format: format, Text: text})
	}
	s.writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/phone/lines/"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("bad line number"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		format, text, err := s.phone.Line(n)
		if err != nil {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeJSON(w, http.StatusOK, lineBody{Line: n, Format: format, Text: text})

	case http.MethodPut, http.MethodPost:
		var body lineBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.phone.SetLine(n, body.Text); err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleIcons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.phone.Icons())
}

type iconBody struct {
	On bool `json:"on"`
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/phone/icons/")

	var body iconBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.phone.SetIcon(name, body.On); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ringtoneBody struct {
	// Notes is the melody as a hex byte string, same format as the
	// configuration file.
	Notes string `json:"notes"`
}

func (s *Server) handleRingtone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body ringtoneBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	buf, err := config.DecodeRingtone(body.Notes)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.phone.SetRingtone(buf); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, engine.ErrShutdown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// ---- EVENT STREAM ----

type wsClient struct {
	id     int64
	conn   *websocket.Conn
	sendCh chan engine.Event
	done   chan struct{}
	once   sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.l.WithError(err).Warn("websocket upgrade")
		return
	}

	c := &wsClient{
		id:     atomic.AddInt64(&s.nextWSID, 1),
		conn:   conn,
		sendCh: make(chan engine.Event, 64),
		done:   make(chan struct{}),
	}
	s.wsClientMu.Lock()
	s.wsClients[c.id] = c
	s.wsClientMu.Unlock()
	s.l.WithField("client", c.id).Debug("event stream connected")

	go s.writePump(c)

	// Inbound messages are ignored; the read loop only notices
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.wsClientMu.Lock()
	delete(s.wsClients, c.id)
	s.wsClientMu.Unlock()
	c.close()
	s.l.WithField("client", c.id).Debug("event stream disconnected")
}

func (s *Server) writePump(c *wsClient) {
	for {
		select {
		case ev := <-c.sendCh:
			if err := c.conn.WriteJSON(ev); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// broadcastLoop owns the engine notification channel and fans every
// event out to the connected stream clients. It exits when the engine
// closes the channel on teardown.
func (s *Server) broadcastLoop() {
	for ev := range s.phone.Events() {
		s.wsClientMu.Lock()
		for _, c := range s.wsClients {
			select {
			case c.sendCh <- ev:
			default:
				// Slow consumer; drop rather than stall the fan-out.
			}
		}
		s.wsClientMu.Unlock()
	}
}
