package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulse-im/pulse/tests/testutil"
)

// TestDirectMessageFlow drives the full stack: register two users over
// REST, log them in, connect both over websocket, and exchange one
// direct message end to end.
func TestDirectMessageFlow(t *testing.T) {
	if !testutil.Enabled() {
		t.Skip("set PULSE_E2E to run end-to-end tests")
	}

	base := testutil.ServerAddr()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	aliceID, aliceToken := registerAndLogin(t, base, "alice-"+suffix)
	bobID, bobToken := registerAndLogin(t, base, "bob-"+suffix)

	alice := dial(t, base, aliceToken)
	defer func() { _ = alice.Close() }()
	bob := dial(t, base, bobToken)
	defer func() { _ = bob.Close() }()

	expectFrame(t, alice, "connected")
	expectFrame(t, bob, "connected")

	if err := alice.WriteJSON(map[string]string{
		"type":        "message",
		"receiver_id": bobID,
		"content":     "hello bob",
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	delivery := expectFrame(t, bob, "message")
	record := delivery["message"].(map[string]interface{})
	if record["content"] != "hello bob" {
		t.Errorf("unexpected content: %v", record["content"])
	}

	ack := expectFrame(t, alice, "message_sent")
	if ack["message"].(map[string]interface{})["id"] == "" {
		t.Error("ack missing persisted id")
	}

	// Bob reads the conversation; Alice gets the receipt.
	if err := bob.WriteJSON(map[string]string{
		"type":      "read_messages",
		"sender_id": aliceID,
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	receipt := expectFrame(t, alice, "messages_read")
	if receipt["reader_id"] != bobID {
		t.Errorf("expected reader %s, got %v", bobID, receipt["reader_id"])
	}
}

func registerAndLogin(t *testing.T, base, username string) (id, token string) {
	t.Helper()

	regBody, _ := json.Marshal(map[string]string{"username": username, "password": "secret123"})
	resp, err := http.Post(base+"/api/register", "application/json", bytes.NewReader(regBody))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var reg struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}

	loginBody, _ := json.Marshal(map[string]string{"username": username, "password": "secret123"})
	resp2, err := http.Post(base+"/api/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&login); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}

	return reg.ID, login.Token
}

func dial(t *testing.T, base, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(base, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func expectFrame(t *testing.T, conn *websocket.Conn, wantType string) map[string]interface{} {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("setting deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var frame map[string]interface{}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if frame["type"] != wantType {
		t.Fatalf("expected %s frame, got %v", wantType, frame["type"])
	}
	return frame
}
