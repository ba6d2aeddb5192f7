package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"weddinghub/internal/common"
	"weddinghub/internal/config"

	"github.com/gorilla/mux"
)

type Server struct {
	cfg    *config.Config
	repo   common.NotificationRepository
	bc     *Broadcaster
	router *mux.Router
}

func NewServer(cfg *config.Config, repo common.NotificationRepository, bc *Broadcaster) *Server {
	s := &Server{
		cfg:  cfg,
		repo: repo,
		bc:   bc,
	}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router = mux.NewRouter()

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware([]byte(s.cfg.Auth.JWTSecret)))
	api.HandleFunc("/notifications/stream", s.handleStream).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/notifications/unread-count", s.handleUnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", s.handleMarkRead).Methods(http.MethodPost)
}

// handleStream holds the SSE connection open and writes one data frame per
// broadcast notification until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// open acknowledgment so clients see the connection is live
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	events, unsubscribe := s.bc.Subscribe()
	defer unsubscribe()

	log.Printf("hub: stream open for user=%d role=%s (%d connected)",
		id.UserID, id.Role, s.bc.SubscriberCount())

	for {
		select {
		case n := <-events:
			payload, err := json.Marshal(n)
			if err != nil {
				log.Printf("hub: failed to marshal notification %d: %v", n.ID, err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			log.Printf("hub: stream closed for user=%d role=%s", id.UserID, id.Role)
			return
		}
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	notifications, err := s.repo.ByRecipient(r.Context(), id, limit, offset)
	if err != nil {
		log.Printf("hub: failed to list notifications: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// handleCreate persists and broadcasts a notification. This is the dev-only
// injection endpoint standing in for the marketplace's booking and payment
// flows.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var n common.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification payload")
		return
	}

	if n.RecipientID == 0 || !n.RecipientRole.Valid() {
		writeError(w, http.StatusBadRequest, "recipientId and a valid recipientRole are required")
		return
	}
	if n.Type == "" {
		n.Type = common.GenericType
	}

	if err := s.repo.Create(r.Context(), &n); err != nil {
		log.Printf("hub: failed to store notification: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store notification")
		return
	}

	s.bc.Broadcast(n)

	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	notificationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	readAt, err := s.repo.MarkAsRead(r.Context(), notificationID, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     notificationID,
		"isRead": true,
		"readAt": readAt,
	})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no identity")
		return
	}

	count, err := s.repo.UnreadCount(r.Context(), id)
	if err != nil {
		log.Printf("hub: failed to count unread: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count unread")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "weddinghub-notify-hub",
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("hub: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
