package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ilee165/network-device-backup/internal/model"
)

// BackupSettings control the orchestration engine.
type BackupSettings struct {
	RepositoryPath    string `yaml:"repository_path"`
	ConcurrentBackups int    `yaml:"concurrent_backups"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RetryAttempts     int    `yaml:"retry_attempts"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
}

// RetryDelay returns the inter-attempt delay as a duration.
func (b BackupSettings) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelaySeconds) * time.Second
}

// ScheduleSettings control the cron daemon.
type ScheduleSettings struct {
	Enabled        bool   `yaml:"enabled"`
	CronExpression string `yaml:"cron_expression"`
}

// EmailSettings configure SMTP delivery of run reports. Credentials are
// referenced by environment variable name, never stored in the file.
type EmailSettings struct {
	Enabled     bool     `yaml:"enabled"`
	SMTPServer  string   `yaml:"smtp_server"`
	SMTPPort    int      `yaml:"smtp_port"`
	From        string   `yaml:"from_address"`
	To          []string `yaml:"to_addresses"`
	UsernameEnv string   `yaml:"username_env"`
	PasswordEnv string   `yaml:"password_env"`

	// Resolved from the environment at load time.
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// WebhookSettings configure JSON webhook delivery of run summaries.
type WebhookSettings struct {
	Enabled bool   `yaml:"enabled"`
	URLEnv  string `yaml:"url_env"`

	URL string `yaml:"-"`
}

// NotificationSettings group the delivery channels.
type NotificationSettings struct {
	Email   EmailSettings   `yaml:"email"`
	Webhook WebhookSettings `yaml:"webhook"`
}

// ServerSettings configure the MCP endpoint.
type ServerSettings struct {
	ListenAddr string `yaml:"listen_addr"`
	TokenEnv   string `yaml:"token_env"`

	BearerToken string `yaml:"-"`
}

// LoggingSettings configure the process logger.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type settingsFile struct {
	Backup        BackupSettings       `yaml:"backup"`
	Schedule      ScheduleSettings     `yaml:"schedule"`
	Notifications NotificationSettings `yaml:"notifications"`
	Server        ServerSettings       `yaml:"server"`
	Logging       LoggingSettings      `yaml:"logging"`
}

type credentialRef struct {
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
}

type deviceSpec struct {
	Name      string   `yaml:"name"`
	Hostname  string   `yaml:"hostname"`
	Type      string   `yaml:"device_type"`
	Port      int      `yaml:"port"`
	Timeout   int      `yaml:"timeout"`
	Groups    []string `yaml:"groups"`
	Enabled   *bool    `yaml:"enabled"`
	Community string   `yaml:"snmp_community"`
}

type devicesFile struct {
	Credentials map[string]credentialRef `yaml:"credentials"`
	Devices     []deviceSpec             `yaml:"devices"`
}

// Config is the loaded application configuration: the device inventory
// plus all settings. The backup engine receives everything it needs
// from here and never reads the environment itself.
type Config struct {
	Dir     string
	Devices []model.Device

	Backup        BackupSettings
	Schedule      ScheduleSettings
	Notifications NotificationSettings
	Server        ServerSettings
	Logging       LoggingSettings
}

// Load reads devices.yaml and settings.yaml from dir. devices.yaml is
// required; settings.yaml is optional and falls back to defaults.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		Dir: dir,
		Backup: BackupSettings{
			RepositoryPath:    "./backups/repo",
			ConcurrentBackups: 3,
			TimeoutSeconds:    30,
			RetryAttempts:     3,
			RetryDelaySeconds: 5,
		},
		Schedule: ScheduleSettings{
			CronExpression: "0 2 * * *",
		},
		Server: ServerSettings{
			ListenAddr: ":8080",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}

	if err := cfg.loadDevices(filepath.Join(dir, "devices.yaml")); err != nil {
		return nil, err
	}
	if err := cfg.loadSettings(filepath.Join(dir, "settings.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadDevices(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("device inventory not found: %s (copy devices.yaml.example and configure your devices)", path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file devicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	defaultCreds := file.Credentials["default"]
	defaultUser := os.Getenv(defaultCreds.UsernameEnv)
	defaultPass := os.Getenv(defaultCreds.PasswordEnv)

	seen := make(map[string]bool)
	for _, spec := range file.Devices {
		if spec.Name == "" {
			return fmt.Errorf("parsing %s: device with empty name", path)
		}
		if seen[spec.Name] {
			return fmt.Errorf("parsing %s: duplicate device name %q", path, spec.Name)
		}
		seen[spec.Name] = true

		dev := model.Device{
			Name:      spec.Name,
			Host:      spec.Hostname,
			Type:      spec.Type,
			Port:      spec.Port,
			Timeout:   spec.Timeout,
			Groups:    spec.Groups,
			Enabled:   true,
			Community: spec.Community,
			Username:  defaultUser,
			Password:  defaultPass,
		}
		if spec.Enabled != nil {
			dev.Enabled = *spec.Enabled
		}
		if dev.Port == 0 {
			dev.Port = 22
		}
		if dev.Timeout == 0 {
			dev.Timeout = 30
		}

		// Device-specific credentials override the defaults.
		if ref, ok := file.Credentials[spec.Name]; ok {
			if u := os.Getenv(ref.UsernameEnv); u != "" {
				dev.Username = u
			}
			if p := os.Getenv(ref.PasswordEnv); p != "" {
				dev.Password = p
			}
		}

		c.Devices = append(c.Devices, dev)
	}

	return nil
}

func (c *Config) loadSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // defaults apply
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file := settingsFile{
		Backup:   c.Backup,
		Schedule: c.Schedule,
		Server:   c.Server,
		Logging:  c.Logging,
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	c.Backup = file.Backup
	c.Schedule = file.Schedule
	c.Notifications = file.Notifications
	c.Server = file.Server
	c.Logging = file.Logging

	if c.Backup.ConcurrentBackups < 1 {
		c.Backup.ConcurrentBackups = 1
	}
	if c.Backup.RetryAttempts < 1 {
		c.Backup.RetryAttempts = 1
	}

	c.Notifications.Email.Username = os.Getenv(c.Notifications.Email.UsernameEnv)
	c.Notifications.Email.Password = os.Getenv(c.Notifications.Email.PasswordEnv)
	c.Notifications.Webhook.URL = os.Getenv(c.Notifications.Webhook.URLEnv)
	c.Server.BearerToken = os.Getenv(c.Server.TokenEnv)

	return nil
}

// EnabledDevices returns every enabled device in the inventory.
func (c *Config) EnabledDevices() []model.Device {
	var out []model.Device
	for _, d := range c.Devices {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// DevicesByGroup returns the enabled devices that belong to the named
// group.
func (c *Config) DevicesByGroup(group string) []model.Device {
	var out []model.Device
	for _, d := range c.Devices {
		if d.Enabled && d.InGroup(group) {
			out = append(out, d)
		}
	}
	return out
}

// DeviceByName returns the named device, or nil if it is not
// configured.
func (c *Config) DeviceByName(name string) *model.Device {
	for i := range c.Devices {
		if c.Devices[i].Name == name {
			return &c.Devices[i]
		}
	}
	return nil
}
