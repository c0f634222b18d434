package main

import (
	"log"

	"golivehub/internal/database"
	"golivehub/internal/services"

	"github.com/spf13/cobra"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Manage the demo livestream listing",
}

var mockSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the fixed demo livestreams",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		n, err := services.NewLivestreamStore(db).SeedMock(cmd.Context())
		if err != nil {
			return err
		}
		log.Printf("🌱 Seeded %d demo livestreams", n)
		return nil
	},
}

var mockRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the demo livestreams",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		n, err := services.NewLivestreamStore(db).RemoveMock(cmd.Context())
		if err != nil {
			return err
		}
		log.Printf("🧹 Removed %d demo livestreams", n)
		return nil
	},
}

func init() {
	mockCmd.AddCommand(mockSeedCmd, mockRemoveCmd)
	rootCmd.AddCommand(mockCmd)
}
