// Package identity resolves player uuids to display names out-of-band.
// Lookups hit the Mojang session server, so nothing in the sync path ever
// waits on one: callers enqueue and move on, answers land in a cache.
package identity

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultProfileURL = "https://sessionserver.mojang.com/session/minecraft/profile/"

type Resolver struct {
	log        *log.Logger
	client     *http.Client
	profileURL string

	mu    sync.RWMutex
	names map[uuid.UUID]string

	queue chan uuid.UUID
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewResolver starts the single resolution worker. Close releases it.
func NewResolver(logger *log.Logger) *Resolver {
	r := &Resolver{
		log:        logger,
		client:     &http.Client{Timeout: 10 * time.Second},
		profileURL: defaultProfileURL,
		names:      map[uuid.UUID]string{},
		queue:      make(chan uuid.UUID, 256),
		stop:       make(chan struct{}),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
	return r
}

func (r *Resolver) Close() {
	r.once.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

// Enqueue requests resolution of one player id. It never blocks: when the
// queue is full the request is dropped, and a later sync pass will re-ask.
func (r *Resolver) Enqueue(id uuid.UUID) {
	if r == nil || id == uuid.Nil {
		return
	}
	r.mu.RLock()
	_, known := r.names[id]
	r.mu.RUnlock()
	if known {
		return
	}
	select {
	case r.queue <- id:
	default:
	}
}

// Name returns the cached display name for a player, if resolved yet.
func (r *Resolver) Name(id uuid.UUID) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

func (r *Resolver) loop() {
	for {
		select {
		case <-r.stop:
			return
		case id := <-r.queue:
			r.mu.RLock()
			_, known := r.names[id]
			r.mu.RUnlock()
			if known {
				continue
			}
			name, err := r.fetch(id)
			if err != nil {
				if r.log != nil {
					r.log.Printf("identity %s: %v", id, err)
				}
				continue
			}
			r.mu.Lock()
			r.names[id] = name
			r.mu.Unlock()
		}
	}
}

func (r *Resolver) fetch(id uuid.UUID) (string, error) {
	url := r.profileURL + strings.ReplaceAll(id.String(), "-", "")
	resp, err := r.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile lookup: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	name := gjson.GetBytes(body, "name").String()
	if name == "" {
		return "", fmt.Errorf("profile lookup: no name in response")
	}
	return name, nil
}
