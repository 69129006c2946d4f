package conf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 回测参数
type BacktestConfig struct {
	Symbol         string  `yaml:"symbol"`
	StartDate      string  `yaml:"start-date"` // 2006-01-02
	EndDate        string  `yaml:"end-date"`
	InitialCapital float64 `yaml:"initial-capital"`
	MaxBars        int     `yaml:"max-bars"` // 0 表示不限制
	LotSize        float64 `yaml:"lot-size"` // 最小交易单位，A股为100
	DataFile       string  `yaml:"data-file"`
	Strategy       string  `yaml:"strategy"`
	DebugMode      bool    `yaml:"debug-mode"`
}

// 风控参数
type RiskConfig struct {
	CommissionRate       float64 `yaml:"commission-rate"`        // 手续费率，如 0.0003
	SlippageRate         float64 `yaml:"slippage-rate"`          // 滑点比例
	MaxPositionRatio     float64 `yaml:"max-position-ratio"`     // 单标的最大仓位比例
	MaxExposureRatio     float64 `yaml:"max-exposure-ratio"`     // 总持仓市值占比上限
	MaxDrawdownLimit     float64 `yaml:"max-drawdown-limit"`     // 距峰值回撤超过该值后拒绝开仓
	DailyLossLimit       float64 `yaml:"daily-loss-limit"`       // 单日亏损比例上限
	MaxConsecutiveLosses int     `yaml:"max-consecutive-losses"` // 单标的连续亏损次数上限
	StopLoss             float64 `yaml:"stop-loss"`              // 默认止损比例，如 0.05
	TakeProfit           float64 `yaml:"take-profit"`            // 默认止盈比例
	TrailingStop         float64 `yaml:"trailing-stop"`          // 默认移动止损回撤比例
	MaxTradeCash         float64 `yaml:"max-trade-cash"`         // 单笔委托金额上限，0 表示不限制
	RiskFreeRate         float64 `yaml:"risk-free-rate"`         // 日度无风险利率，夏普/索提诺用
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	AppName  string         `yaml:"app_name"`
	Mode     string         `yaml:"mode"` // cli 或 server
	Backtest BacktestConfig `yaml:"backtest"`
	Risk     RiskConfig     `yaml:"risk"`
	Log      LogConfig      `yaml:"log"`
	Db       *Db            `yaml:"db"` // 为空则不落库
	Server   ServerConfig   `yaml:"server"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	AppConfig = Default()
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	return nil
}

// Default 未在 yaml 中出现的字段使用这里的默认值
func Default() Config {
	return Config{
		AppName: "quantflow",
		Mode:    "cli",
		Backtest: BacktestConfig{
			InitialCapital: 100000,
			LotSize:        100,
			Strategy:       "rsi",
		},
		Risk: RiskConfig{
			CommissionRate:       0.0003,
			MaxPositionRatio:     0.1,
			MaxExposureRatio:     0.8,
			MaxDrawdownLimit:     0.2,
			DailyLossLimit:       0.05,
			MaxConsecutiveLosses: 3,
			StopLoss:             0.05,
			TakeProfit:           0.15,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Server: ServerConfig{Listen: ":8090"},
	}
}

// ParseDate 解析配置里的日期，空串返回零值
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
