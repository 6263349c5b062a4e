package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openota/payloadstated/pkg/download"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the payload state machine's current attempt state",
		Run: func(cmd *cobra.Command, args []string) {
			doStatus()
		},
		Args: cobra.NoArgs,
	}
	rootCmd.AddCommand(cmd)
}

func doStatus() {
	c, _, err := newController()
	DieNotNil(err, "failed to open persistent store")

	st := c.State()
	fmt.Printf("payload attempt number:   %d\n", st.PayloadAttemptNumber)
	fmt.Printf("current url index:        %d\n", st.URLIndex)
	fmt.Printf("current url failures:     %d\n", st.URLFailureCount)
	fmt.Printf("url switch count:         %d\n", st.URLSwitchCount)
	fmt.Printf("num reboots this attempt: %d\n", st.NumReboots)
	fmt.Printf("current download source:  %s\n", c.CurrentSource())

	if st.BackoffExpiry.IsZero() {
		fmt.Println("backoff:                   none")
	} else {
		fmt.Printf("backoff expires:           %s\n", st.BackoffExpiry.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("should backoff now:        %t\n", c.ShouldBackoffDownload())
	}

	if st.UpdateTimestampStart.IsZero() {
		fmt.Println("update in progress:       no")
	} else {
		fmt.Printf("update started:            %s\n", st.UpdateTimestampStart.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("uptime so far:             %s\n", st.UpdateDurationUptime)
	}

	acct := c.Accounting()
	for _, src := range download.Sources() {
		fmt.Printf("bytes from %-11s current=%d total=%d\n", src, acct.Current(src), acct.Total(src))
	}
}
