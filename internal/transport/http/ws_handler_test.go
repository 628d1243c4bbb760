package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/game"
	"sciquiz-service/internal/infra/memory"
)

func TestWebSocketMatchFlow(t *testing.T) {
	source := memory.NewBankSource(map[string][]domain.Question{
		"arithmetic": {
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
		},
	})
	orch := game.NewOrchestrator(source, memory.NewLeaderboard(), game.Options{
		RevealDelay: 10 * time.Millisecond,
	})
	wsHandler := NewWSHandler(orch, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives on connect.
	snap := readState(conn, t)
	if snap["phase"] != "selecting" {
		t.Fatalf("expected selecting, got %v", snap["phase"])
	}

	writeMsg(conn, t, "selectLevel", map[string]any{"level": 2})
	waitForPhase(conn, t, "configuring")

	writeMsg(conn, t, "start", map[string]any{
		"mode":   "practice",
		"topics": []string{"arithmetic"},
	})
	waitForPhase(conn, t, "playing")

	writeMsg(conn, t, "answer", map[string]any{"participant": "Player", "selected": 1})
	final := waitForPhase(conn, t, "finished")

	outcome, ok := final["outcome"].(map[string]any)
	if !ok {
		t.Fatalf("expected outcome in finished snapshot, got %v", final)
	}
	if outcome["score"] != float64(1) || outcome["percent"] != float64(100) {
		t.Fatalf("expected 1/1 (100%%), got %v", outcome)
	}

	// Unknown message types are rejected without killing the connection.
	writeMsg(conn, t, "bogus", map[string]any{})
	readUntilType(conn, t, "error")
}

func writeMsg(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readState(conn *websocket.Conn, t *testing.T) map[string]any {
	t.Helper()
	typ, payload := readNext(conn, t)
	if typ != "state" {
		t.Fatalf("expected state, got %s", typ)
	}
	return payload
}

// waitForPhase reads snapshots until one reports the wanted phase. The
// subscriber channel drops stale snapshots, so intermediate phases may never
// arrive.
func waitForPhase(conn *websocket.Conn, t *testing.T, phase string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t)
		if typ == "state" && payload["phase"] == phase {
			return payload
		}
	}
	t.Fatalf("never reached phase %s", phase)
	return nil
}

func readUntilType(conn *websocket.Conn, t *testing.T, want string) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, _ := readNext(conn, t)
		if typ == want {
			return
		}
	}
	t.Fatalf("never saw message type %s", want)
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
