package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/casebrief/internal/server"
)

var (
	serverPort     int
	serverAllowAll bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the intake HTTP API",
	Long:  `Starts the casebrief REST API for running intake sessions and reading the audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: serverAllowAll,
		}, a.intake, a.audit, a.log)

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "casebrief server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.database.Path())
		fmt.Fprintf(os.Stderr, "  Provider: %s\n", a.cfg.Provider)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	serverCmd.Flags().BoolVar(&serverAllowAll, "cors-allow-all", false, "Allow all CORS origins")
	rootCmd.AddCommand(serverCmd)
}
