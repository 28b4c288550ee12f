// Package main implements the repotrackr CLI for manual operations
// against the repotrackrd HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the repotrackrd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repotrackr",
	Short: "CLI for repotrackrd HTTP server operations",
	Long: `repotrackr is a command-line interface for the repotrackrd server.
It provides commands for registering projects, triggering processing runs
and inspecting progress, skills and jobs.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "repotrackrd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(skillsCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check repotrackrd server health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := apiGet("/health")
		if err != nil {
			return err
		}
		cmd.Println(string(body))
		return nil
	},
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func apiGet(path string) ([]byte, error) {
	resp, err := httpClient().Get(serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func apiPost(path string, body io.Reader) ([]byte, error) {
	resp, err := httpClient().Post(serverURL+path, "application/json", body)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func apiDelete(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodDelete, serverURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}
	return body, nil
}

// printJSON pretty-prints a JSON response body.
func printJSON(cmd *cobra.Command, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var buf any
	if err := json.Unmarshal(body, &buf); err != nil {
		cmd.Println(string(body))
		return nil
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(pretty))
	return nil
}
