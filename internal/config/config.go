package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string        `json:"log_level" yaml:"log_level"`
	Ingest   IngestConfig  `json:"ingest" yaml:"ingest"`
	Rules    RulesConfig   `json:"rules" yaml:"rules"`
	Notify   NotifyConfig  `json:"notify" yaml:"notify"`
	Storage  StorageConfig `json:"storage" yaml:"storage"`
	Cache    CacheConfig   `json:"cache" yaml:"cache"`
	API      APIConfig     `json:"api" yaml:"api"`
	Alerts   AlertsConfig  `json:"alerts" yaml:"alerts"`
}

type IngestConfig struct {
	Kafka       KafkaConfig   `json:"kafka" yaml:"kafka"`
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout"`
	BatchSize   int           `json:"batch_size" yaml:"batch_size"`
	IdleDelay   time.Duration `json:"idle_delay" yaml:"idle_delay"`
	// Topics maps a source topic to the event category it carries.
	Topics map[string]string `json:"topics" yaml:"topics"`
	// DefaultSource labels events whose payload omits a source field.
	DefaultSource string `json:"default_source" yaml:"default_source"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type RulesConfig struct {
	Thresholds ThresholdsConfig `json:"thresholds" yaml:"thresholds"`
	CostImpact CostImpactConfig `json:"cost_impact" yaml:"cost_impact"`
	LeadTimes  LeadTimesConfig  `json:"lead_times" yaml:"lead_times"`
}

// ThresholdsConfig carries the two-tier trigger bounds per category.
type ThresholdsConfig struct {
	InventoryCritical   float64 `json:"inventory_critical" yaml:"inventory_critical"`
	InventoryWarning    float64 `json:"inventory_warning" yaml:"inventory_warning"`
	DemandSpike         float64 `json:"demand_spike" yaml:"demand_spike"`
	CostVariance        float64 `json:"cost_variance" yaml:"cost_variance"`
	SupplierDelayHours  float64 `json:"supplier_delay_hours" yaml:"supplier_delay_hours"`
	SupplierSevereHours float64 `json:"supplier_severe_hours" yaml:"supplier_severe_hours"`
}

// CostImpactConfig holds the fallback cost estimates used when an event
// payload carries no impact figure of its own.
type CostImpactConfig struct {
	InventoryCritical float64 `json:"inventory_critical" yaml:"inventory_critical"`
	InventoryWarning  float64 `json:"inventory_warning" yaml:"inventory_warning"`
	DemandSpike       float64 `json:"demand_spike" yaml:"demand_spike"`
	SupplierDelay     float64 `json:"supplier_delay" yaml:"supplier_delay"`
	CostVariance      float64 `json:"cost_variance" yaml:"cost_variance"`
}

// LeadTimesConfig sets how far past alert creation each urgency deadline lands.
type LeadTimesConfig struct {
	InventoryCritical time.Duration `json:"inventory_critical" yaml:"inventory_critical"`
	InventoryWarning  time.Duration `json:"inventory_warning" yaml:"inventory_warning"`
	DemandSpike       time.Duration `json:"demand_spike" yaml:"demand_spike"`
	SupplierDelay     time.Duration `json:"supplier_delay" yaml:"supplier_delay"`
	CostVariance      time.Duration `json:"cost_variance" yaml:"cost_variance"`
}

type NotifyConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Webhooks maps a logical channel name to a webhook URL.
	Webhooks     map[string]string `json:"webhooks" yaml:"webhooks"`
	Timeout      time.Duration     `json:"timeout" yaml:"timeout"`
	DashboardURL string            `json:"dashboard_url" yaml:"dashboard_url"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type CacheConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Driver     string        `json:"driver" yaml:"driver"`
	Addr       string        `json:"addr" yaml:"addr"`
	EventTTL   time.Duration `json:"event_ttl" yaml:"event_ttl"`
	MetricsTTL time.Duration `json:"metrics_ttl" yaml:"metrics_ttl"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type AlertsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Ingest: IngestConfig{
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "supply-chain-alerting",
			},
			PollTimeout: 1 * time.Second,
			BatchSize:   100,
			IdleDelay:   100 * time.Millisecond,
			Topics: map[string]string{
				"inventory-updates":    "inventory",
				"demand-forecasts":     "demand",
				"supplier-events":      "supplier",
				"cost-changes":         "cost",
				"production-schedules": "production",
			},
			DefaultSource: "unknown",
		},
		Rules: RulesConfig{
			Thresholds: ThresholdsConfig{
				InventoryCritical:   0.10,
				InventoryWarning:    0.25,
				DemandSpike:         1.50,
				CostVariance:        0.15,
				SupplierDelayHours:  24,
				SupplierSevereHours: 48,
			},
			CostImpact: CostImpactConfig{
				InventoryCritical: 50000,
				InventoryWarning:  15000,
				DemandSpike:       25000,
				SupplierDelay:     10000,
				CostVariance:      5000,
			},
			LeadTimes: LeadTimesConfig{
				InventoryCritical: 24 * time.Hour,
				InventoryWarning:  72 * time.Hour,
				DemandSpike:       7 * 24 * time.Hour,
				SupplierDelay:     12 * time.Hour,
				CostVariance:      5 * 24 * time.Hour,
			},
		},
		Notify: NotifyConfig{
			Enabled:      false,
			Webhooks:     map[string]string{},
			Timeout:      10 * time.Second,
			DashboardURL: "https://supply-chain-dashboard.local",
		},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:supplywatch.db?_pragma=busy_timeout(5000)"},
		Cache: CacheConfig{
			Enabled:    true,
			Driver:     "memory",
			EventTTL:   24 * time.Hour,
			MetricsTTL: 1 * time.Hour,
		},
		API:    APIConfig{Enabled: true, Addr: ":8081"},
		Alerts: AlertsConfig{StoreLimit: 1000},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Ingest.PollTimeout <= 0 {
		cfg.Ingest.PollTimeout = def.Ingest.PollTimeout
	}
	if cfg.Ingest.BatchSize <= 0 {
		cfg.Ingest.BatchSize = def.Ingest.BatchSize
	}
	if cfg.Ingest.IdleDelay <= 0 {
		cfg.Ingest.IdleDelay = def.Ingest.IdleDelay
	}
	if len(cfg.Ingest.Topics) == 0 {
		cfg.Ingest.Topics = def.Ingest.Topics
	}
	if cfg.Ingest.DefaultSource == "" {
		cfg.Ingest.DefaultSource = def.Ingest.DefaultSource
	}
	if cfg.Rules.Thresholds.InventoryCritical <= 0 {
		cfg.Rules.Thresholds.InventoryCritical = def.Rules.Thresholds.InventoryCritical
	}
	if cfg.Rules.Thresholds.InventoryWarning <= 0 {
		cfg.Rules.Thresholds.InventoryWarning = def.Rules.Thresholds.InventoryWarning
	}
	if cfg.Rules.Thresholds.DemandSpike <= 0 {
		cfg.Rules.Thresholds.DemandSpike = def.Rules.Thresholds.DemandSpike
	}
	if cfg.Rules.Thresholds.CostVariance <= 0 {
		cfg.Rules.Thresholds.CostVariance = def.Rules.Thresholds.CostVariance
	}
	if cfg.Rules.Thresholds.SupplierDelayHours <= 0 {
		cfg.Rules.Thresholds.SupplierDelayHours = def.Rules.Thresholds.SupplierDelayHours
	}
	if cfg.Rules.Thresholds.SupplierSevereHours <= 0 {
		cfg.Rules.Thresholds.SupplierSevereHours = def.Rules.Thresholds.SupplierSevereHours
	}
	if cfg.Rules.CostImpact.InventoryCritical <= 0 {
		cfg.Rules.CostImpact.InventoryCritical = def.Rules.CostImpact.InventoryCritical
	}
	if cfg.Rules.CostImpact.InventoryWarning <= 0 {
		cfg.Rules.CostImpact.InventoryWarning = def.Rules.CostImpact.InventoryWarning
	}
	if cfg.Rules.CostImpact.DemandSpike <= 0 {
		cfg.Rules.CostImpact.DemandSpike = def.Rules.CostImpact.DemandSpike
	}
	if cfg.Rules.CostImpact.SupplierDelay <= 0 {
		cfg.Rules.CostImpact.SupplierDelay = def.Rules.CostImpact.SupplierDelay
	}
	if cfg.Rules.CostImpact.CostVariance <= 0 {
		cfg.Rules.CostImpact.CostVariance = def.Rules.CostImpact.CostVariance
	}
	if cfg.Rules.LeadTimes.InventoryCritical <= 0 {
		cfg.Rules.LeadTimes.InventoryCritical = def.Rules.LeadTimes.InventoryCritical
	}
	if cfg.Rules.LeadTimes.InventoryWarning <= 0 {
		cfg.Rules.LeadTimes.InventoryWarning = def.Rules.LeadTimes.InventoryWarning
	}
	if cfg.Rules.LeadTimes.DemandSpike <= 0 {
		cfg.Rules.LeadTimes.DemandSpike = def.Rules.LeadTimes.DemandSpike
	}
	if cfg.Rules.LeadTimes.SupplierDelay <= 0 {
		cfg.Rules.LeadTimes.SupplierDelay = def.Rules.LeadTimes.SupplierDelay
	}
	if cfg.Rules.LeadTimes.CostVariance <= 0 {
		cfg.Rules.LeadTimes.CostVariance = def.Rules.LeadTimes.CostVariance
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = def.Notify.Timeout
	}
	if cfg.Cache.EventTTL <= 0 {
		cfg.Cache.EventTTL = def.Cache.EventTTL
	}
	if cfg.Cache.MetricsTTL <= 0 {
		cfg.Cache.MetricsTTL = def.Cache.MetricsTTL
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = def.Cache.Driver
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = def.Alerts.StoreLimit
	}
}

func Validate(cfg *Config) error {
	if len(cfg.Ingest.Kafka.Brokers) == 0 {
		return errors.New("ingest.kafka.brokers is required")
	}
	if cfg.Ingest.Kafka.GroupID == "" {
		return errors.New("ingest.kafka.group_id is required")
	}
	if len(cfg.Ingest.Topics) == 0 {
		return errors.New("ingest.topics requires at least one topic mapping")
	}
	for topic, category := range cfg.Ingest.Topics {
		if topic == "" || category == "" {
			return fmt.Errorf("ingest.topics contains empty topic or category: %q=%q", topic, category)
		}
	}
	if cfg.Rules.Thresholds.InventoryWarning < cfg.Rules.Thresholds.InventoryCritical {
		return errors.New("rules.thresholds.inventory_warning must be >= inventory_critical")
	}
	if cfg.Rules.Thresholds.SupplierSevereHours < cfg.Rules.Thresholds.SupplierDelayHours {
		return errors.New("rules.thresholds.supplier_severe_hours must be >= supplier_delay_hours")
	}
	if cfg.Notify.Enabled && len(cfg.Notify.Webhooks) == 0 {
		return errors.New("notify.webhooks required when notify.enabled is true")
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("storage.driver %q is not supported", cfg.Storage.Driver)
		}
	}
	if cfg.Cache.Enabled {
		switch strings.ToLower(cfg.Cache.Driver) {
		case "memory":
		case "redis":
			if cfg.Cache.Addr == "" {
				return errors.New("cache.addr required when cache.driver is redis")
			}
		default:
			return fmt.Errorf("cache.driver %q is not supported", cfg.Cache.Driver)
		}
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager wraps an in-memory config with no backing file.
func NewStaticManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
