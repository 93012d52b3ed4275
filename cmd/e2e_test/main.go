package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Sign up a fresh user
	username := fmt.Sprintf("e2e-user-%d", time.Now().UnixNano())
	userID := signup(username)
	fmt.Printf("Created User ID: %s\n", userID)

	// 3. Log in with the same credentials
	checkEndpoint("POST", "/login", map[string]interface{}{
		"username": username, "password": "e2e-password",
	}, 200)

	// 4. Browse the stock catalog
	checkEndpoint("GET", "/stocks", nil, 200)
	checkEndpoint("GET", "/stocks/AAPL", nil, 200)

	// 5. Buy 10 AAPL at 150
	checkEndpoint("POST", "/transaction", map[string]interface{}{
		"user_id": userID, "type": "buy", "symbol": "AAPL", "quantity": 10, "price": "150",
	}, 200)

	// 6. Portfolio shows the position
	checkEndpoint("GET", "/portfolio/"+userID, nil, 200)

	// 7. An over-sized buy is rejected
	checkEndpoint("POST", "/transaction", map[string]interface{}{
		"user_id": userID, "type": "buy", "symbol": "AAPL", "quantity": 5, "price": "5000",
	}, 402)

	// 8. Sell out and verify the holding is gone
	checkEndpoint("POST", "/transaction", map[string]interface{}{
		"user_id": userID, "type": "sell", "symbol": "AAPL", "quantity": 10, "price": "200",
	}, 200)
	checkEndpoint("GET", "/portfolio/"+userID, nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}

func signup(username string) string {
	fmt.Println("Signing up...")
	reqBody := map[string]interface{}{
		"username": username,
		"password": "e2e-password",
		"email":    username + "@example.com",
	}
	jsonBody, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/signup", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Fatalf("Signup failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Signup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res map[string]string
	json.NewDecoder(resp.Body).Decode(&res)
	return res["user_id"]
}
