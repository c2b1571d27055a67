package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Collector CollectorConfig `mapstructure:"collector"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// FeedConfig 描述被监控的成交事件来源。
// Account 为空时仅按合约过滤，不校验账户归属。
type FeedConfig struct {
	Instrument  string        `mapstructure:"instrument"`
	Account     string        `mapstructure:"account"`
	ReplayPath  string        `mapstructure:"replay_path"`
	ReplayDelay time.Duration `mapstructure:"replay_delay"`
}

// CollectorConfig 描述下游采集端的投递参数。
type CollectorConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Pacing    time.Duration `mapstructure:"pacing"`
	Decompose bool          `mapstructure:"decompose"`
}

// LedgerConfig 控制本地持仓台账的保留策略。
// MaxEntryAge 为 0 表示永不清理，这是默认行为。
type LedgerConfig struct {
	MaxEntryAge      time.Duration `mapstructure:"max_entry_age"`
	EvictionInterval time.Duration `mapstructure:"eviction_interval"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MonitorConfig 控制监控接口。
type MonitorConfig struct {
	Port int `mapstructure:"port"`
}

// BridgeConfig 控制采集端服务。
type BridgeConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	QueueSize  int    `mapstructure:"queue_size"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Feed.Instrument == "" {
		err = multierr.Append(err, errors.New("feed.instrument 不能为空"))
	}
	if c.Feed.ReplayDelay < 0 {
		err = multierr.Append(err, errors.New("feed.replay_delay 不能为负"))
	}
	if c.Collector.URL == "" {
		err = multierr.Append(err, errors.New("collector.url 不能为空"))
	} else if u, parseErr := url.Parse(c.Collector.URL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("collector.url 不是合法的 HTTP 地址: %q", c.Collector.URL))
	}
	if c.Collector.Timeout <= 0 {
		err = multierr.Append(err, errors.New("collector.timeout 必须大于0"))
	}
	if c.Collector.Pacing < 0 {
		err = multierr.Append(err, errors.New("collector.pacing 不能为负"))
	}
	if c.Ledger.MaxEntryAge < 0 {
		err = multierr.Append(err, errors.New("ledger.max_entry_age 不能为负"))
	}
	if c.Ledger.MaxEntryAge > 0 && c.Ledger.EvictionInterval <= 0 {
		err = multierr.Append(err, errors.New("ledger.eviction_interval 在开启清理时必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Monitor.Port <= 0 || c.Monitor.Port > 65535 {
		err = multierr.Append(err, errors.New("monitor.port 必须位于(0,65535]"))
	}
	if c.Bridge.ListenAddr == "" {
		err = multierr.Append(err, errors.New("bridge.listen_addr 不能为空"))
	}
	if c.Bridge.QueueSize <= 0 {
		err = multierr.Append(err, errors.New("bridge.queue_size 必须大于0"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
