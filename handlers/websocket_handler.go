package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/services"
)

const clientSendBuffer = 256

type WebSocketHandler struct {
	hub          *brackets.Hub
	eventService services.EventService
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewWebSocketHandler создаёт обработчик. Пустой allowedOrigins или ["*"] разрешает любой origin.
func NewWebSocketHandler(hub *brackets.Hub, es services.EventService, allowedOrigins []string, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		eventService: es,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.OrNop(log),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeLeague подписывает клиента на обновления всей лиги: /ws/league
func (h *WebSocketHandler) ServeLeague(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, brackets.LeagueRoom)
}

// ServeEvent подписывает клиента на обновления сезона: /ws/events/{eventID}
func (h *WebSocketHandler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.eventService.GetEvent(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, brackets.EventRoom(eventID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Warn("websocket upgrade failed", zap.String("room", roomID), zap.Error(err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, clientSendBuffer),
		Room: roomID,
	}
	select {
	case client.Hub.Register <- client:
	case <-h.hub.Done():
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
