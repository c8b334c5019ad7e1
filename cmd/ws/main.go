package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Werneck0live/loja-precificacao/internal/broker"
	"github.com/Werneck0live/loja-precificacao/internal/config"
	"github.com/Werneck0live/loja-precificacao/internal/events"
	"github.com/Werneck0live/loja-precificacao/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// painel interno; ajuste CORS conforme necessário
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func main() {
	wscfg, err := config.LoadWSConfig()
	if err != nil {
		slog.Error("config_error", "err", err)
		os.Exit(1)
	}

	_ = config.InitLogger(wscfg.LogLevel())
	log := slog.Default().With("svc", "ws")
	hub := ws.NewHub(log)
	go hub.Run()

	// Conecta no Rabbit e começa a consumir
	consumer, err := broker.NewConsumer(wscfg.RabbitURI, wscfg.RabbitQueue, "ws-consumer", wscfg.ConsumerPrefetch)
	if err != nil {
		log.Error("rabbit_consumer_start_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()
	log.Info("rabbit_consumer_started", "queue", wscfg.RabbitQueue)

	// encaminha mensagens do Rabbit para o hub
	go func() {
		for d := range consumer.Deliveries {
			typ := d.Type
			if typ == "" {
				// mensagem sem propriedade Type: tenta pelo corpo
				evt, err := events.Decode(d.Body)
				if err != nil {
					log.Warn("delivery_decode_error", "err", err)
					continue
				}
				typ = evt.Type
			}
			hub.Publish(typ, d.Body)
		}
		log.Warn("deliveries_channel_closed")
	}()

	// HTTP: /ws e /healthz
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWS(hub, wscfg.ClientBuffer, w, r, log)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              wscfg.Addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: wscfg.ReadHeaderTimeout,
	}

	go func() {
		log.Info("ws_listen", "addr", wscfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http_server_error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), wscfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	hub.Stop()

	log.Info("stopped", "dropped_clients", hub.Dropped())
}

// handleWS: ?types=tax_profile,discount_schedule limita os eventos recebidos.
func handleWS(hub *ws.Hub, buffer int, w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ws_upgrade_error", "err", err)
		return
	}

	client := &ws.Client{
		Topics: ws.ParseTopics(r.URL.Query().Get("types")),
		Send:   make(chan []byte, buffer),
	}
	hub.Register(client)
	log.Info("ws_client_connected", "id", client.ID, "remote", r.RemoteAddr)

	// writer: encerra quando o hub fecha Send (desconexão ou cliente lento)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			_ = conn.Close()
		}()
		for {
			select {
			case msg, ok := <-client.Send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// reader: só existe para detectar o fechamento e responder pongs
	go func() {
		defer func() {
			hub.Unregister(client)
			_ = conn.Close()
		}()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

type statusRW struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRW) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Loga as requisições HTTP, exceto o upgrade do websocket
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// upgrade precisa do ResponseWriter original (Hijacker)
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		srw := &statusRW{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		slog.Info("http_request",
			"method", r.Method, "path", r.URL.Path,
			"status", srw.status, "bytes", srw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		)
	})
}
