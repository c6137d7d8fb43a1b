package integration

import (
	"net/http"
	"os"
	"testing"
)

func TestHealth(t *testing.T) {
	addr := os.Getenv("TEST_SERVER_ADDR")
	if addr == "" {
		t.Skip("TEST_SERVER_ADDR not set; server not running")
	}

	resp, err := http.Get(addr + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
