package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paularlott/cli"

	"github.com/ilee165/network-device-backup/internal/app"
	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/mcp"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the MCP server",
		Description: "Expose backup operations to MCP clients over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Listen address (overrides settings.yaml)",
				EnvVars: []string{"NETBACKUP_LISTEN_ADDR"},
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			addr := cfg.Server.ListenAddr
			if v := cmd.GetString("listen"); v != "" {
				addr = v
			}

			mcpServer := mcp.NewServer(engine, cfg, cfg.Server.BearerToken)

			mux := http.NewServeMux()
			mux.HandleFunc("/mcp", mcpServer.HandleRequest)

			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
				<-sigChan
				log.Info("Shutting down server...")
				server.Close()
			}()

			log.Info("Starting server", "addr", addr)
			log.Info("MCP available", "url", "http://localhost"+addr+"/mcp")
			mcpServer.LogStartup()

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Server error", "error", err)
				return err
			}

			log.Info("Server stopped")
			return nil
		},
	}
}
