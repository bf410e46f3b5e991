package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

// WSHandler streams quiz generation progress over a websocket.
type WSHandler struct {
	generation   *app.GenerationService
	defaultOwner string
	log          logrus.FieldLogger
	upgrader     websocket.Upgrader
}

func NewWSHandler(generation *app.GenerationService, defaultOwner string, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		generation:   generation,
		defaultOwner: defaultOwner,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one generation, emitting progress
// events followed by a final quiz or error message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.GenerateRequest{
		DocumentID: q.Get("document_id"),
		Title:      q.Get("title"),
		Difficulty: q.Get("difficulty"),
	}
	if req.DocumentID == "" {
		http.Error(w, "missing document_id", http.StatusBadRequest)
		return
	}
	if count := q.Get("count"); count != "" {
		n, err := strconv.Atoi(count)
		if err != nil {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		req.QuestionCount = n
	}
	req.OwnerID = r.Header.Get("X-User-ID")
	if req.OwnerID == "" {
		req.OwnerID = h.defaultOwner
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Generate runs on this goroutine and OnProgress fires inline, so all
	// writes share a single writer.
	req.OnProgress = func(p app.Progress) {
		if err := conn.WriteJSON(outboundMessage[app.Progress]{Type: "progress", Payload: p}); err != nil {
			h.log.WithError(err).Warn("Websocket write failed")
		}
	}

	quiz, err := h.generation.Generate(r.Context(), req)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	_ = conn.WriteJSON(outboundMessage[domain.Quiz]{Type: "quiz", Payload: quiz})
}
