package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openota/payloadstated/pkg/faultcode"
	"github.com/openota/payloadstated/pkg/response"
)

// simulateScript is the on-disk fixture shape for `payloadctl simulate`:
// a response to install and a scripted sequence of events to feed the
// controller, used to exercise backoff and accounting without a real
// downloader or Omaha client (spec's Non-goals exclude both).
type simulateScript struct {
	Response response.UpdateResponse `yaml:"response"`
	Events   []simulateEvent         `yaml:"events"`
}

type simulateEvent struct {
	// Kind is one of: download_progress, download_complete,
	// update_failed, update_succeeded, update_restarted, update_resumed.
	Kind string `yaml:"kind"`
	Bytes uint64 `yaml:"bytes,omitempty"`
	Code  int    `yaml:"code,omitempty"`
}

func init() {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive the payload state machine through a scripted update, for testing and demos",
		Run: func(cmd *cobra.Command, args []string) {
			doSimulate(scriptPath)
		},
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "Path to a YAML simulation script (required)")
	_ = cmd.MarkFlagRequired("script")
	rootCmd.AddCommand(cmd)
}

func doSimulate(scriptPath string) {
	raw, err := os.ReadFile(scriptPath)
	DieNotNil(err, "failed to read simulation script")

	var script simulateScript
	DieNotNil(yaml.Unmarshal(raw, &script), "failed to parse simulation script")

	c, _, err := newController()
	DieNotNil(err, "failed to open persistent store")

	c.SetResponse(script.Response)

	bar := progressbar.Default(int64(len(script.Events)))
	for _, ev := range script.Events {
		switch ev.Kind {
		case "download_progress":
			c.DownloadProgress(ev.Bytes)
		case "download_complete":
			c.DownloadComplete()
		case "update_failed":
			c.UpdateFailed(faultcode.ErrorCode(ev.Code))
		case "update_succeeded":
			c.UpdateSucceeded()
		case "update_restarted":
			c.UpdateRestarted()
		case "update_resumed":
			c.UpdateResumed()
		default:
			fmt.Fprintf(os.Stderr, "unknown event kind %q, skipping\n", ev.Kind)
		}
		_ = bar.Add(1)
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Println()
	doStatus()
}
