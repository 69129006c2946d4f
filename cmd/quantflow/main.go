package main

import (
	"flag"
	"fmt"
	"log"

	"quantflow/conf"
	"quantflow/internal/strategy"
	"quantflow/pkg/logger"
)

// 回测入口。cli 模式跑一次回测并打印报告，
// server 模式启动 HTTP 服务接收回测请求。

/*
测试

curl -X POST http://localhost:8090/api/v1/backtest/run \
  -H "Content-Type: application/json" \
  -d '{"symbol":"600519.SH","strategy":"rsi","initial_capital":100000,"data_file":"data/600519.csv"}'
*/

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	serverMode := flag.Bool("server", false, "以 HTTP 服务方式运行")
	flag.Parse()

	// 加载配置文件
	if err := conf.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := &conf.AppConfig

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 注册策略
	strategy.Register(strategy.NewRSIStrategy(14, 30, 70))
	strategy.Register(strategy.NewMACDStrategy(12, 26, 9))
	strategy.Register(strategy.NewBollingerStrategy(20, 2))
	strategy.Register(strategy.NewComposite("blend",
		strategy.WeightedChild{Strategy: strategy.NewRSIStrategy(14, 30, 70), Weight: 0.6},
		strategy.WeightedChild{Strategy: strategy.NewMACDStrategy(12, 26, 9), Weight: 0.4},
	))

	if *serverMode || cfg.Mode == "server" {
		runServer(cfg)
		return
	}

	result, err := runOnce(cfg)
	if result == nil {
		log.Fatalf("Backtest failed: %v", err)
	}
	if err != nil {
		log.Printf("Backtest finished with warnings: %v", err)
	}
	fmt.Println(result.Summary())
}
