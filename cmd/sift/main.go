// Command sift scores email threads from JSON files without running the server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/sift/internal/triage"
)

var (
	jsonOutput bool
	nowFlag    string
	workers    int
)

var rootCmd = &cobra.Command{
	Use:           "sift",
	Short:         "sift - email thread triage",
	Long:          "Score urgency and importance, rank threads and suggest the next action, from JSON input.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, _ []string) {
		vi := v.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "sift version %s (commit=%s, go=%s)\n", vi.Version, vi.Commit, vi.GoVersion)
	},
}

func init() {
	v.AppName = "sift"
	v.Component = "cli"

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&nowFlag, "now", "", "Evaluate as of this RFC 3339 time (default: current time)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", triage.DefaultWorkers, "Concurrent scorers for rank")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// clock resolves --now. The same instant is used for the whole command.
func clock() (time.Time, error) {
	if nowFlag == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, nowFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", nowFlag, err)
	}
	return t, nil
}

func newEngine(now time.Time) *triage.Engine {
	return triage.NewEngine(log.Nop(), triage.EngineHooks{},
		triage.WithClock(func() time.Time { return now }),
		triage.WithWorkers(workers),
	)
}

// readInput reads FILE, or stdin when FILE is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// decodeRequest accepts either a full request ({"thread": ...}) or a bare thread.
func decodeRequest(data []byte) (*triage.Request, error) {
	var req triage.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if req.Thread == nil {
		var th triage.Thread
		if err := json.Unmarshal(data, &th); err != nil {
			return nil, fmt.Errorf("decode thread: %w", err)
		}
		req.Thread = &th
	}
	if req.Thread.ID == "" {
		return nil, triage.ErrInvalidRequest
	}
	return &req, nil
}

// decodeThreads accepts a JSON array of threads or {"threads": [...]}.
func decodeThreads(data []byte) ([]*triage.Thread, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var threads []*triage.Thread
		if err := json.Unmarshal(data, &threads); err != nil {
			return nil, fmt.Errorf("decode threads: %w", err)
		}
		return threads, nil
	}
	var wrapped struct {
		Threads []*triage.Thread `json:"threads"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode threads: %w", err)
	}
	return wrapped.Threads, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
