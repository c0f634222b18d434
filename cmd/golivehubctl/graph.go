package main

import (
	"fmt"
	"log"

	"golivehub/internal/database"
	"golivehub/internal/services"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Maintain the follow graph",
}

var graphReconcileCmd = &cobra.Command{
	Use:   "reconcile <user-id>...",
	Short: "Rebuild users' following and followers lists from the edge table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		graph := services.NewSocialGraph(db)
		for _, userID := range args {
			user, err := graph.Reconcile(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", userID, err)
			}
			log.Printf("✅ %s: following %d, followers %d", userID, len(user.Following), len(user.Followers))
		}
		return nil
	},
}

var graphBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Create edge rows for follows recorded only in users' lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		n, err := services.NewSocialGraph(db).BackfillEdges(cmd.Context())
		if err != nil {
			return err
		}
		log.Printf("✅ Backfilled %d follow edges", n)
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphReconcileCmd, graphBackfillCmd)
	rootCmd.AddCommand(graphCmd)
}
