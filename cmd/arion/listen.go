package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/backend/postgres"
	"github.com/arion-db/arion/internal/obs"
)

func listenCmd() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for NOTIFY broadcasts and print each payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			ctx := cmd.Context()

			adapter, err := backend.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer adapter.Close()

			pg, ok := adapter.(*postgres.Adapter)
			if !ok {
				return fmt.Errorf("listen requires a postgres:// DSN")
			}

			l, err := pg.ListenForNotifications(ctx, channel)
			if err != nil {
				return err
			}
			obs.Op().Info("listening", "channel", channel)

			if channel == postgres.BroadcastChannelName {
				return l.ConsumeBroadcasts(ctx, func(bp postgres.BroadcastPayload) {
					fmt.Printf("url=%s exclusive=%v data=%d bytes\n", bp.URL, bp.Exclusive, len(bp.Data))
				})
			}
			return l.ConsumeNotifications(ctx, func(ch, payload string) {
				fmt.Printf("%s: %s\n", ch, payload)
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", postgres.BroadcastChannelName, "notification channel to LISTEN on")
	return cmd
}
