package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/vellum/internal/convert"
)

var gotenbergCmd = &cobra.Command{
	Use:   "gotenberg",
	Short: "Manage the Gotenberg container",
	Long: `Manage the Gotenberg container lifecycle.

Gotenberg converts office documents (docx, pptx, xlsx, ...) to PDF.
It runs in a Docker container; vellum uses it automatically when
gotenberg.url is set in the config.

Examples:
  vellum gotenberg start   # Start the Gotenberg container
  vellum gotenberg stop    # Stop the container
  vellum gotenberg status  # Check container status`,
}

var gotenbergStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Gotenberg container",
	Long: `Start the Gotenberg container.

If the container doesn't exist, the image is pulled and the container
is created. If it exists but is stopped, it is started. If it's
already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getGotenbergManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Gotenberg...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Gotenberg: %w", err)
		}

		fmt.Printf("Gotenberg is running at %s\n", mgr.URL())
		fmt.Printf("Set gotenberg.url: %s in your config to use it\n", mgr.URL())
		return nil
	},
}

var gotenbergStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Gotenberg container",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getGotenbergManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Gotenberg...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Gotenberg: %w", err)
		}

		fmt.Println("Gotenberg stopped")
		return nil
	},
}

var gotenbergStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Gotenberg container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getGotenbergManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case convert.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			probe := convert.NewGotenbergConverter(mgr.URL(), nil, nil)
			if err := probe.WaitReady(ctx, 2*time.Second); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case convert.StatusStopped:
			fmt.Printf("Status: %s (use 'vellum gotenberg start' to start)\n", status)
		case convert.StatusNotFound:
			fmt.Printf("Status: %s (use 'vellum gotenberg start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var gotenbergRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Gotenberg container",
	Long: `Remove the Gotenberg container.

This stops and removes the container. Gotenberg is stateless, so
nothing is lost; 'vellum gotenberg start' recreates it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getGotenbergManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Gotenberg container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Gotenberg container removed")
		return nil
	},
}

var gotenbergWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Gotenberg to be ready",
	Long: `Wait for Gotenberg to accept conversions.

Useful in scripts to make sure the container is fully started before
processing documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getGotenbergManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Gotenberg (timeout: %s)...\n", timeout)

		probe := convert.NewGotenbergConverter(mgr.URL(), nil, nil)
		if err := probe.WaitReady(ctx, timeout); err != nil {
			return fmt.Errorf("Gotenberg not ready: %w", err)
		}

		fmt.Println("Gotenberg is ready")
		return nil
	},
}

func init() {
	gotenbergCmd.AddCommand(gotenbergStartCmd)
	gotenbergCmd.AddCommand(gotenbergStopCmd)
	gotenbergCmd.AddCommand(gotenbergStatusCmd)
	gotenbergCmd.AddCommand(gotenbergRemoveCmd)
	gotenbergCmd.AddCommand(gotenbergWaitCmd)

	gotenbergWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for Gotenberg")

	rootCmd.AddCommand(gotenbergCmd)
}

// getGotenbergManager creates a container manager from the current config.
func getGotenbergManager() (*convert.GotenbergManager, error) {
	cfg := cfgManager.Get()
	return convert.NewGotenbergManager(convert.GotenbergManagerConfig{
		ContainerName: cfg.Gotenberg.ContainerName,
		Image:         cfg.Gotenberg.Image,
		HostPort:      cfg.Gotenberg.Port,
	})
}
