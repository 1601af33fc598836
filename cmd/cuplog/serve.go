package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mwalters/cuplog/internal/server"
	"github.com/mwalters/cuplog/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cuplog API server",
	Long: `Start the HTTP API server backed by the local sqlite database.

Endpoints:
  POST /api/entries        log a consumption entry
  GET  /api/entries        list recent entries (newest first)
  GET  /api/entries/{id}   fetch one entry
  PUT  /api/entries/{id}   update an entry's rating/location
  GET  /ws                 websocket live-update feed
  GET  /health             health check

The server runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if v, _ := flags.GetString("listen"); flags.Changed("listen") {
			cfg.ListenAddr = v
		}
		if v, _ := flags.GetString("db"); flags.Changed("db") {
			cfg.DatabasePath = v
		}
		if v, _ := flags.GetString("log-file"); flags.Changed("log-file") {
			cfg.LogFile = v
		}

		st, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		if err := st.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		logger := serverLogger()

		srv := server.NewServer(st, &server.Config{
			Addr:   cfg.ListenAddr,
			Owner:  cfg.Owner,
			Logger: logger,
		})

		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		fmt.Printf("cuplog server listening on %s\n", srv.Addr())
		fmt.Printf("Database: %s\n", cfg.DatabasePath)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		return srv.Stop()
	},
}

// serverLogger writes to stderr, and additionally through a rotating log
// file when one is configured.
func serverLogger() *log.Logger {
	out := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	return log.New(out, "[cuplog] ", log.LstdFlags)
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (e.g. :8080)")
	serveCmd.Flags().String("db", "", "Path to the sqlite database file")
	serveCmd.Flags().String("log-file", "", "Rotating log file path (empty = stderr only)")

	rootCmd.AddCommand(serveCmd)
}
