package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"docquiz-service/internal/app"
)

func TestWebSocketGenerationFlow(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{candidates: twoCandidates()})
	doc := uploadDocument(t, env, "notes.txt", "ignored", "the sun drives the water cycle")

	u := "ws" + env.baseURL[len("http"):] + "/ws/generation?document_id=" + doc.ID + "&count=2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var stages []string
	var quizID string
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t)
		switch typ {
		case "progress":
			if stage, ok := payload["stage"].(string); ok {
				stages = append(stages, stage)
			}
			continue
		case "quiz":
			quizID, _ = payload["id"].(string)
		case "error":
			t.Fatalf("unexpected error message: %v", payload)
		}
		break
	}

	if quizID == "" {
		t.Fatalf("expected a final quiz message, saw stages %v", stages)
	}
	if len(stages) == 0 || stages[0] != app.StageDocumentReady {
		t.Fatalf("expected progress starting with %s, got %v", app.StageDocumentReady, stages)
	}
	last := stages[len(stages)-1]
	if last != app.StageCompleted {
		t.Fatalf("expected final stage %s, got %s", app.StageCompleted, last)
	}
}

func TestWebSocketErrorMentionsMissingQuery(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})
	resp, err := http.Get(env.baseURL + "/ws/generation")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without document_id, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}
