package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskdock/taskdock/internal/connectivity"
	"github.com/taskdock/taskdock/internal/sync"
	"github.com/taskdock/taskdock/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drain the sync queue",
	Long: `Process pending sync queue items in batches.

Delivery is currently a stub that accepts every item; the transport is
the seam where a real backend client will plug in. With --watch the
queue is drained repeatedly at the configured interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		svc := sync.New(app.queue, nil, app.logger, viper.GetInt("sync.batch"))
		probe := connectivity.NewProbe()

		drain := func() error {
			if !probe.IsOnline() {
				fmt.Printf("%s Offline, skipping drain\n", ui.RenderWarn("⚠"))
				return nil
			}
			count, err := svc.ProcessQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s Processed %d item(s)\n", ui.RenderPass("✓"), count)
			return nil
		}

		if !watch {
			return drain()
		}

		interval := viper.GetDuration("sync.interval")
		if interval <= 0 {
			interval = 30 * time.Second
		}
		fmt.Printf("%s Draining every %v (ctrl-c to stop)\n", ui.RenderAccent("🔄"), interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := drain(); err != nil {
				return err
			}
			select {
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show pending sync queue items",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, err := app.queue.GetPending(cmd.Context(), viper.GetInt("sync.batch"))
		if err != nil {
			return err
		}

		if len(pending) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		for _, item := range pending {
			fmt.Printf("%6d  %-6s  %-8s  %s  %s\n",
				item.ID, item.EntityType, item.Operation,
				item.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				item.EntityID)
		}
		fmt.Printf("\n%d pending item(s)\n", len(pending))
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("watch", false, "drain repeatedly at sync.interval")
}
