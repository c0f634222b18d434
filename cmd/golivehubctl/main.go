package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golivehub/internal/config"
	"golivehub/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "golivehubctl",
	Short: "GoLiveHub maintenance tool",
	Long: `golivehubctl runs maintenance tasks against the GoLiveHub database
and smoke-tests a running server the way the app signs in.`,
	SilenceUsage: true,
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openDB connects with the environment's database settings
func openDB() (*gorm.DB, error) {
	return database.Open(config.Load().Database)
}
