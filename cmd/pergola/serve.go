package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/pergola/internal/presentation/tui"
	httpadapter "github.com/aretw0/pergola/pkg/adapters/http"
	mcpadapter "github.com/aretw0/pergola/pkg/adapters/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invocation server",
	Long:  `Starts the engine with the demo toolset, exposing it over HTTP or MCP.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, logger, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		switch transport {
		case "stdio":
			// No banner on stdio: stdout belongs to the protocol.
			if err := mcpadapter.NewServer(engine, logger).ServeStdio(); err != nil {
				fmt.Printf("MCP server error: %v\n", err)
				os.Exit(1)
			}
			return
		case "sse":
			tui.PrintBanner()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := mcpadapter.NewServer(engine, logger).ServeSSE(ctx, port); err != nil {
				fmt.Printf("MCP server error: %v\n", err)
				os.Exit(1)
			}
			return
		case "http":
		default:
			fmt.Printf("Unknown transport %q (want http, sse or stdio)\n", transport)
			os.Exit(1)
		}

		tui.PrintBanner()
		srv := &http.Server{
			Addr:    ":" + strconv.Itoa(port),
			Handler: httpadapter.NewHandler(engine, logger),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Pergola Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Pergola Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (http and sse)")
	serveCmd.Flags().StringP("transport", "t", "http", "Transport: http, sse or stdio")
}
