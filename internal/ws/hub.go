package ws

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Client é uma conexão do painel. Topics vazio recebe tudo; senão só os
// eventos cujo tipo começa com algum dos prefixos (ex.: "tax_profile").
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Accepts diz se o evento do tipo typ deve ir para o cliente.
func (c *Client) Accepts(typ string) bool {
	if len(c.Topics) == 0 {
		return true
	}
	for _, t := range c.Topics {
		if typ == t || strings.HasPrefix(typ, t+".") {
			return true
		}
	}
	return false
}

// ParseTopics lê "?types=tax_profile,discount_schedule".
func ParseTopics(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type message struct {
	typ string
	msg []byte
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client // id -> client
	register chan *Client
	unreg    chan *Client

	events chan message

	log     *slog.Logger
	stop    chan struct{}
	stopped chan struct{}

	nextID  atomic.Uint64
	dropped atomic.Uint64
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:  make(map[string]*Client),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan message, 1024),
		log:      log.With("cmp", "ws.hub"),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (h *Hub) newID() string {
	return fmt.Sprintf("c%d", h.nextID.Add(1))
}

func (h *Hub) Run() {
	h.log.Info("hub_run_start")
	defer close(h.stopped)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client_registered", "id", c.ID, "topics", c.Topics, "total", total)

		case c := <-h.unreg:
			if c == nil {
				continue
			}
			h.mu.Lock()
			h.remove(c.ID)
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client_unregistered", "id", c.ID, "total", total)

		case m := <-h.events:
			h.fanOut(m)

		case <-h.stop:
			h.mu.Lock()
			for id := range h.clients {
				h.remove(id)
			}
			h.mu.Unlock()
			h.log.Info("hub_run_stop")
			return
		}
	}
}

// fanOut nunca bloqueia: cliente com buffer cheio é desconectado.
func (h *Hub) fanOut(m message) {
	var slow []string
	h.mu.RLock()
	for id, c := range h.clients {
		if !c.Accepts(m.typ) {
			continue
		}
		select {
		case c.Send <- m.msg:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, id := range slow {
		h.remove(id)
	}
	h.mu.Unlock()
	h.dropped.Add(uint64(len(slow)))
	h.log.Warn("clients_dropped_slow", "ids", slow, "type", m.typ)
}

// remove exige h.mu travado para escrita.
func (h *Hub) remove(id string) {
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.Send)
	}
}

func (h *Hub) Stop() {
	close(h.stop)
	<-h.stopped
}

// Register define o ID antes de entregar ao hub, para o chamador já poder usá-lo.
func (h *Hub) Register(c *Client) {
	if c.ID == "" {
		c.ID = h.newID()
	}
	h.register <- c
}

// Unregister não bloqueia depois de Stop.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.stopped:
	}
}

// Publish enfileira o evento já serializado; typ decide quem recebe.
func (h *Hub) Publish(typ string, b []byte) { h.events <- message{typ: typ, msg: b} }

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
