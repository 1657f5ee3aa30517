// Package mcp exposes the backup engine to MCP clients over HTTP.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/paularlott/mcp"

	"github.com/ilee165/network-device-backup/internal/backup"
	"github.com/ilee165/network-device-backup/internal/config"
	"github.com/ilee165/network-device-backup/internal/log"
)

// Server wraps the MCP server with the backup engine.
type Server struct {
	mcpServer   *mcp.Server
	engine      *backup.Engine
	cfg         *config.Config
	bearerToken string
}

// NewServer creates an MCP server exposing backup operations.
func NewServer(engine *backup.Engine, cfg *config.Config, bearerToken string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer("netbackup", "1.0.0"),
		engine:      engine,
		cfg:         cfg,
		bearerToken: bearerToken,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	// backup_run - Run a backup for a device, a group, or all enabled devices
	s.mcpServer.RegisterTool(
		mcp.NewTool("backup_run", "Run a configuration backup. Targets one device, one group, or all enabled devices when neither is given.",
			mcp.String("device", "Device name to back up"),
			mcp.String("group", "Group name to back up"),
		),
		s.handleBackupRun,
	)

	// backup_status - Backup status for one device
	s.mcpServer.RegisterTool(
		mcp.NewTool("backup_status", "Get the backup status of a device: last backup time and recent history",
			mcp.String("device", "Device name", mcp.Required()),
			mcp.String("limit", "Maximum history entries to return (default 10)"),
		),
		s.handleBackupStatus,
	)

	// backup_history - Snapshot history for one device
	s.mcpServer.RegisterTool(
		mcp.NewTool("backup_history", "List the snapshot history of a device, most recent first",
			mcp.String("device", "Device name", mcp.Required()),
			mcp.String("limit", "Maximum entries to return (default 10)"),
		),
		s.handleBackupHistory,
	)

	// backup_diff - Diff between the device's two most recent snapshots
	s.mcpServer.RegisterTool(
		mcp.NewTool("backup_diff", "Show the unified diff between a device's two most recent configuration snapshots",
			mcp.String("device", "Device name", mcp.Required()),
		),
		s.handleBackupDiff,
	)

	// device_list - List configured devices
	s.mcpServer.RegisterTool(
		mcp.NewTool("device_list", "List configured devices, optionally filtered by group",
			mcp.String("group", "Filter by group name"),
		),
		s.handleDeviceList,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token
// authentication.
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != s.bearerToken {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

func (s *Server) handleBackupRun(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	sel := backup.Selection{
		Device: req.StringOr("device", ""),
		Group:  req.StringOr("group", ""),
	}

	log.Debug("MCP backup run request", "selection", sel.String())

	result, err := s.engine.Run(ctx, sel)
	if err != nil {
		log.Error("MCP backup run failed", "error", err)
		return nil, mcp.NewToolErrorInternal("backup run failed: " + err.Error())
	}

	if result.Empty() {
		return mcp.NewToolResponseText(fmt.Sprintf("No devices matched selection: %s", sel.String())), nil
	}

	return mcp.NewToolResponseText(backup.RenderReport(result)), nil
}

func (s *Server) handleBackupStatus(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	device, err := req.String("device")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("device is required: " + err.Error())
	}
	limit := intParam(req, "limit", 10)

	status, err := s.engine.Status(device, limit)
	if err != nil {
		log.Error("MCP backup status failed", "error", err, "device", device)
		return nil, mcp.NewToolErrorInternal("status failed: " + err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Device: %s (%s)\n", status.Device.Name, status.Device.Host)
	fmt.Fprintf(&b, "Type: %s\n", status.Device.Type)
	fmt.Fprintf(&b, "Enabled: %t\n", status.Device.Enabled)
	if status.LastBackup == nil {
		b.WriteString("Last backup: never\n")
	} else {
		fmt.Fprintf(&b, "Last backup: %s\n", status.LastBackup.Format("2006-01-02 15:04:05"))
	}
	if len(status.History) > 0 {
		b.WriteString("\nRecent snapshots:\n")
		for _, h := range status.History {
			fmt.Fprintf(&b, "  r%d  %s  %s\n", h.Revision, h.TakenAt.Format("2006-01-02 15:04:05"), h.Message)
		}
	}

	return mcp.NewToolResponseText(b.String()), nil
}

func (s *Server) handleBackupHistory(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	device, err := req.String("device")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("device is required: " + err.Error())
	}
	limit := intParam(req, "limit", 10)

	status, err := s.engine.Status(device, limit)
	if err != nil {
		log.Error("MCP backup history failed", "error", err, "device", device)
		return nil, mcp.NewToolErrorInternal("history failed: " + err.Error())
	}

	if len(status.History) == 0 {
		return mcp.NewToolResponseText(fmt.Sprintf("No snapshots for device: %s", device)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Snapshot history for %s:\n\n", device)
	for _, h := range status.History {
		fmt.Fprintf(&b, "  r%d  %s  %s\n", h.Revision, h.TakenAt.Format("2006-01-02 15:04:05"), h.Message)
	}

	return mcp.NewToolResponseText(b.String()), nil
}

func (s *Server) handleBackupDiff(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	device, err := req.String("device")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("device is required: " + err.Error())
	}

	diff, err := s.engine.LatestDiff(device)
	if err != nil {
		log.Error("MCP backup diff failed", "error", err, "device", device)
		return nil, mcp.NewToolErrorInternal("diff failed: " + err.Error())
	}

	if diff == "" {
		return mcp.NewToolResponseText(fmt.Sprintf("No diff available for %s (fewer than two snapshots)", device)), nil
	}
	return mcp.NewToolResponseText(diff), nil
}

func (s *Server) handleDeviceList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	group := req.StringOr("group", "")

	devices := s.cfg.Devices
	if group != "" {
		devices = s.cfg.DevicesByGroup(group)
	}

	if len(devices) == 0 {
		if group != "" {
			return mcp.NewToolResponseText(fmt.Sprintf("No devices found in group: %s", group)), nil
		}
		return mcp.NewToolResponseText("No devices configured"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d devices:\n\n", len(devices))
	for _, dev := range devices {
		state := "enabled"
		if !dev.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(&b, "  %s  %s  %s  [%s]", dev.Name, dev.Addr(), dev.Type, state)
		if len(dev.Groups) > 0 {
			fmt.Fprintf(&b, "  groups: %s", strings.Join(dev.Groups, ", "))
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResponseText(b.String()), nil
}

// intParam reads an integer tool parameter passed as a string.
func intParam(req *mcp.ToolRequest, name string, def int) int {
	raw := req.StringOr(name, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// LogStartup logs MCP server startup information.
func (s *Server) LogStartup() {
	log.Info("MCP server initialized", "version", "1.0.0")
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}
