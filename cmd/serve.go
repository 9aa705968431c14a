package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/server"
	"github.com/grovetools/daily/tui/theme"
)

// NewServeCmd creates the `serve` command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local archive dashboard",
		Long: `Serves a read-only web dashboard over the archive on localhost. It lists
dates, digests, and sessions, shows background jobs live, and can queue a
digest for a date.

Without --port the first free port from 31456 upward is used.

Examples:
  # Serve on an automatic port and open the browser
  daily serve

  # Pin the port and skip the browser
  daily serve --port 4000 --no-open
`,
		RunE: runServeE,
	}

	cmd.Flags().IntP("port", "p", 0, "Port to bind (default: first free port from 31456)")
	cmd.Flags().String("host", "127.0.0.1", "Host to bind")
	cmd.Flags().Bool("no-open", false, "Do not open the dashboard in a browser")

	return cmd
}

func runServeE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)

	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	noOpen, _ := cmd.Flags().GetBool("no-open")

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	listener, boundPort, err := server.Listen(host, port)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s:%d", host, boundPort)
	fmt.Printf("%s Daily dashboard on %s\n", theme.IconSuccess, url)
	fmt.Println("  Press Ctrl+C to stop")

	if !noOpen {
		if err := openBrowser(url); err != nil {
			logger.WithError(err).Debug("Could not open browser")
			fmt.Printf("  %s Open it manually: %s\n", theme.IconInfo, url)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
