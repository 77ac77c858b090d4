// Package ws fans published snapshots out to overlay/display clients over
// websocket. Clients receive the current STATE message on connect and every
// republished one afterwards; slow clients drop frames rather than stall
// the broadcaster.
package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Server struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

type client struct {
	out  chan []byte
	quit chan struct{}
}

func NewServer(logger *log.Logger) *Server {
	return &Server{
		log:     logger,
		clients: map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local overlay
		},
	}
}

// Publish queues a STATE message to every connected client and retains it
// for clients that connect later. A client whose buffer is full skips this
// message; the next publish supersedes it anyway.
func (s *Server) Publish(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = msg
	for c := range s.clients {
		select {
		case c.out <- msg:
		default:
		}
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{out: make(chan []byte, 8), quit: make(chan struct{})}

		s.mu.Lock()
		s.clients[c] = struct{}{}
		if s.last != nil {
			c.out <- s.last
		}
		s.mu.Unlock()

		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-c.quit:
					return
				case msg := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: the feed is one-way, so incoming messages are
		// discarded; reading only detects disconnects.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		// Deregister under the lock so Publish stops targeting this
		// client, then stop the writer.
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		close(c.quit)
		<-done
	}
}
