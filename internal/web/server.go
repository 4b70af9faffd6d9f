// Package web serves the conversation over a WebSocket, one session per
// connection.
package web

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"time"

	"food-tourism-assistant/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// maxMessageBytes bounds one inbound frame (a base64 photo).
const maxMessageBytes = 16 << 20

// inbound is a client frame: {"type":"image"|"text"|"reset","data":"..."}.
type inbound struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Server is the WebSocket front-end.
type Server struct {
	sessions *session.Store
	timeout  time.Duration
}

// New creates a Server backed by sessions.
func New(sessions *session.Store) *Server {
	return &Server{sessions: sessions, timeout: time.Minute}
}

// RegisterHandlers registers /ws and /health with mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	clientID := uuid.New().String()
	sess := s.sessions.Get(clientID)
	defer s.sessions.Delete(clientID)

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Error reading message from %s: %v", clientID, err)
			}
			return
		}
		s.handleMessage(r.Context(), conn, sess, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg inbound) {
	switch msg.Type {
	case "image":
		data, err := decodeImage(msg.Data)
		if err != nil {
			log.Printf("Error decoding image: %v", err)
			s.sendError(conn, "Invalid image format")
			return
		}
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		reply, err := sess.Upload(ctx, data)
		if err != nil {
			log.Printf("Error processing image: %v", err)
			msgs := sess.Messages()
			s.sendError(conn, msgs[len(msgs)-1].Content)
			return
		}
		s.sendMessage(conn, reply)
	case "text":
		if strings.TrimSpace(msg.Data) == "" {
			s.sendError(conn, "Empty question")
			return
		}
		s.sendMessage(conn, sess.Ask(msg.Data))
	case "reset":
		s.sendMessage(conn, sess.Reset())
	default:
		s.sendError(conn, "Unknown message type")
	}
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if i := strings.IndexByte(data, ','); i >= 0 {
			data = data[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(data)
}

func (s *Server) sendMessage(conn *websocket.Conn, m session.Message) {
	if err := conn.WriteJSON(outbound{Type: "message", Data: m}); err != nil {
		log.Println("Error sending message:", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(outbound{Type: "error", Data: message}); err != nil {
		log.Println("Error sending error message:", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
