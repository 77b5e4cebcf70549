package monitor

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// VendorConfig carries the connection settings for one vendor portal. Only
// vendors with a base URL are wired at startup.
type VendorConfig struct {
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"token"`
	APIKey       string `yaml:"api_key"`
	PartnerID    string `yaml:"partner_id"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether the vendor is configured.
func (v VendorConfig) Enabled() bool { return v.BaseURL != "" }

// FeedConfig describes one advisory feed to watch.
type FeedConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Keywords []string `yaml:"keywords"`
	Service  string   `yaml:"service"`
}

// TicketingConfig carries the ticket system connection.
type TicketingConfig struct {
	BaseURL  string `yaml:"base_url"`
	Token    string `yaml:"token"`
	Group    string `yaml:"group"`
	Customer string `yaml:"customer"`
}

// DocsyncConfig carries the documentation platform connection.
type DocsyncConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ScheduleConfig sets the pipeline cadences.
type ScheduleConfig struct {
	CollectInterval time.Duration `yaml:"collect_interval"`
	FeedInterval    time.Duration `yaml:"feed_interval"`
	SLADailyAt      string        `yaml:"sla_daily_at"`
}

// Config is the full monitoring pipeline configuration.
type Config struct {
	Vendors struct {
		CloudAlly  VendorConfig `yaml:"cloudally"`
		Skykick    VendorConfig `yaml:"skykick"`
		Sophos     VendorConfig `yaml:"sophos"`
		Veeam      VendorConfig `yaml:"veeam"`
		Integra365 VendorConfig `yaml:"integra365"`
		Zabbix     VendorConfig `yaml:"zabbix"`
	} `yaml:"vendors"`
	Feeds     []FeedConfig    `yaml:"feeds"`
	Ticketing TicketingConfig `yaml:"ticketing"`
	Docsync   DocsyncConfig   `yaml:"docsync"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	var cfg Config

	if path := os.Getenv("MONITOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyVendorEnv(&cfg.Vendors.CloudAlly, "CLOUDALLY")
	applyVendorEnv(&cfg.Vendors.Skykick, "SKYKICK")
	applyVendorEnv(&cfg.Vendors.Sophos, "SOPHOS")
	applyVendorEnv(&cfg.Vendors.Veeam, "VEEAM")
	applyVendorEnv(&cfg.Vendors.Integra365, "INTEGRA365")
	applyVendorEnv(&cfg.Vendors.Zabbix, "ZABBIX")

	if cfg.Ticketing.BaseURL == "" {
		cfg.Ticketing.BaseURL = os.Getenv("ZAMMAD_BASE_URL")
	}
	if cfg.Ticketing.Token == "" {
		cfg.Ticketing.Token = os.Getenv("ZAMMAD_TOKEN")
	}
	if cfg.Docsync.BaseURL == "" {
		cfg.Docsync.BaseURL = os.Getenv("HUDU_BASE_URL")
	}
	if cfg.Docsync.APIKey == "" {
		cfg.Docsync.APIKey = os.Getenv("HUDU_API_KEY")
	}

	if cfg.Schedule.CollectInterval <= 0 {
		cfg.Schedule.CollectInterval = 15 * time.Minute
	}
	if cfg.Schedule.FeedInterval <= 0 {
		cfg.Schedule.FeedInterval = time.Hour
	}
	if cfg.Schedule.SLADailyAt == "" {
		cfg.Schedule.SLADailyAt = getenvDefault("SLA_DAILY_AT", "08:00")
	}
	return cfg, nil
}

func applyVendorEnv(vendor *VendorConfig, prefix string) {
	if vendor.BaseURL == "" {
		vendor.BaseURL = os.Getenv(prefix + "_BASE_URL")
	}
	if vendor.Token == "" {
		vendor.Token = os.Getenv(prefix + "_TOKEN")
	}
	if vendor.APIKey == "" {
		vendor.APIKey = os.Getenv(prefix + "_API_KEY")
	}
	if vendor.PartnerID == "" {
		vendor.PartnerID = os.Getenv(prefix + "_PARTNER_ID")
	}
	if vendor.TokenURL == "" {
		vendor.TokenURL = os.Getenv(prefix + "_TOKEN_URL")
	}
	if vendor.ClientID == "" {
		vendor.ClientID = os.Getenv(prefix + "_CLIENT_ID")
	}
	if vendor.ClientSecret == "" {
		vendor.ClientSecret = os.Getenv(prefix + "_CLIENT_SECRET")
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
