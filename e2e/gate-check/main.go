package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("Usage: %s <identifier> <secret> [gate-addr]", os.Args[0])
	}

	identifier := os.Args[1]
	secret := os.Args[2]
	gateAddr := "http://localhost:8123"
	if len(os.Args) > 3 {
		gateAddr = os.Args[3]
	}

	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"secret":     secret,
	})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}

	resp, err := http.Post(gateAddr+"/v1/session/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Println("✅ Access ALLOWED")
	case http.StatusForbidden:
		fmt.Println("⛔ Access FORBIDDEN (privileged account, session revoked)")
	case http.StatusUnauthorized:
		fmt.Println("❌ Credential failure")
	default:
		fmt.Printf("⚠️  Unexpected status %d\n", resp.StatusCode)
	}

	fmt.Printf("\nResponse body:\n%s\n", string(respBody))
}
