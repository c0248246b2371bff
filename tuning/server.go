// Package tuning exposes a websocket endpoint for editing simulation
// parameters while a run is on screen. Handlers never touch the System
// directly; patches queue up and the goroutine that owns the System
// drains them with Apply once per frame.
package tuning

import (
	"net/http"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	particles "github.com/aiira-co/three-particles"
)

// Patch is one JSON message from a client. Absent fields leave the
// current value alone.
type Patch struct {
	EmissionRate *float64    `json:"emission_rate,omitempty"`
	Drag         *float32    `json:"drag,omitempty"`
	Gravity      *[3]float32 `json:"gravity,omitempty"`
	Origin       *[3]float32 `json:"origin,omitempty"`
	Axis         *[3]float32 `json:"axis,omitempty"`
	Burst        *int        `json:"burst,omitempty"`
	Command      string      `json:"cmd,omitempty"`
}

// Snapshot is what a client receives on connect and after each applied
// patch batch.
type Snapshot struct {
	State        string     `json:"state"`
	Time         float64    `json:"time"`
	Capacity     int        `json:"capacity"`
	EmissionRate float64    `json:"emission_rate"`
	Drag         float32    `json:"drag"`
	Gravity      [3]float32 `json:"gravity"`
	Alive        int        `json:"alive_est"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server queues websocket patches for a single System.
type Server struct {
	sys *particles.System
	log particles.Logger

	mu      sync.Mutex
	pending []Patch
	snap    Snapshot
	conns   map[*websocket.Conn]struct{}

	httpSrv *http.Server
}

// NewServer wraps sys. Call it from the goroutine that owns the System;
// it reads the initial snapshot directly.
func NewServer(sys *particles.System, log particles.Logger) *Server {
	if log == nil {
		log = particles.NewNopLogger()
	}
	s := &Server{
		sys:   sys,
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
	s.snap = s.snapshot()
	return s
}

// Handler returns the websocket endpoint, for mounting on an existing mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

// ListenAndServe mounts the endpoint at /ws and blocks.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	s.log.Infof("tuning server on %s", addr)
	return s.httpSrv.ListenAndServe()
}

// Close shuts the HTTP server down, if ListenAndServe started one.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			s.log.Warnf("tuning: upgrade failed: %v", err)
		}
		return
	}

	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	// Register only after the connect snapshot is written; from then on the
	// Apply goroutine is the connection's only writer.
	if err := conn.WriteJSON(snap); err != nil {
		s.log.Warnf("tuning: snapshot write failed: %v", err)
		conn.Close()
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.drop(conn)

	for {
		var p Patch
		if err := conn.ReadJSON(&p); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("tuning: read failed: %v", err)
			}
			return
		}
		s.mu.Lock()
		s.pending = append(s.pending, p)
		s.mu.Unlock()
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// Apply drains queued patches into the System and pushes a fresh
// snapshot to every client. Must run on the goroutine that owns the
// System. Returns how many patches were applied.
func (s *Server) Apply() int {
	s.mu.Lock()
	queued := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range queued {
		if p.EmissionRate != nil {
			s.sys.SetEmissionRate(*p.EmissionRate)
		}
		if p.Drag != nil {
			s.sys.SetDrag(*p.Drag)
		}
		if p.Gravity != nil {
			s.sys.SetGravity(mgl32.Vec3(*p.Gravity))
		}
		if p.Origin != nil {
			s.sys.SetEmitterOrigin(mgl32.Vec3(*p.Origin))
		}
		if p.Axis != nil {
			s.sys.SetEmitterAxis(mgl32.Vec3(*p.Axis))
		}
		if p.Burst != nil {
			s.sys.Burst(*p.Burst)
		}
		switch p.Command {
		case "":
		case "play":
			s.sys.Play()
		case "pause":
			s.sys.Pause()
		case "stop":
			s.sys.Stop()
		default:
			s.log.Warnf("tuning: unknown command %q", p.Command)
		}
	}

	snap := s.snapshot()

	s.mu.Lock()
	s.snap = snap
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if len(queued) > 0 {
		for _, c := range conns {
			if err := c.WriteJSON(snap); err != nil {
				s.drop(c)
			}
		}
	}

	return len(queued)
}

func (s *Server) snapshot() Snapshot {
	cfg := s.sys.Config()
	return Snapshot{
		State:        s.sys.State().String(),
		Time:         s.sys.Time(),
		Capacity:     cfg.Capacity,
		EmissionRate: cfg.EmissionRate,
		Drag:         cfg.Drag,
		Gravity:      cfg.Gravity,
		Alive:        s.sys.AliveEstimate(),
	}
}
