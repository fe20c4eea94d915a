package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored conversation sessions",
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <thread-id>",
	Short: "Delete one thread's stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := session.New(ctx, cfg.Store, cfg.Session.TTL)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("cleared thread %s\n", args[0])
		return nil
	},
}

var sessionsGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete all expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := session.New(ctx, cfg.Store, cfg.Session.TTL)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		removed, err := st.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("session gc complete", zap.Int("removed", removed))
		fmt.Printf("removed %d expired sessions\n", removed)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsClearCmd)
	sessionsCmd.AddCommand(sessionsGCCmd)
	rootCmd.AddCommand(sessionsCmd)
}
