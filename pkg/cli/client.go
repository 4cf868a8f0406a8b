package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
)

// defaultServer is the daemon admin address, overridable per command.
const defaultServer = "http://127.0.0.1:8815"

// serverAddr resolves the daemon address from the environment.
func serverAddr() string {
	if addr := os.Getenv("TWEAKS_SERVER"); addr != "" {
		return addr
	}
	return defaultServer
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

// getJSON fetches a path from the daemon and decodes the response.
func getJSON(server, path string, dest interface{}) error {
	resp, err := httpClient.Get(server + path)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// postResult posts to a lifecycle path and prints the result.
func postResult(server, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	resp, err := httpClient.Post(server+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", server, err)
	}
	defer resp.Body.Close()

	var res installer.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("unexpected response from daemon: %w", err)
	}

	fmt.Println(res.Message)
	if !res.Success {
		return fmt.Errorf("operation failed")
	}
	return nil
}

// decodeAPIError turns an error response body into an error value.
func decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}
