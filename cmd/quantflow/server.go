package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"quantflow/conf"
	"quantflow/pkg/logger"
)

// Router 加载路由，使用侧提供接口，实现侧需要实现该接口
type Router interface {
	Load(engine *gin.Engine)
}

type Server struct {
	config *conf.ServerConfig
	f      func()
}

func NewServer(c *conf.ServerConfig) *Server {
	return &Server{config: c}
}

func runServer(cfg *conf.Config) {
	gormDB, err := initDB(cfg)
	if err != nil {
		logger.L().Sugar().Fatalf("init db: %v", err)
	}
	apiRouter := InitRouter(cfg, gormDB)

	s := NewServer(&cfg.Server)
	if gormDB != nil {
		s.RegisterOnShutdown(func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				sqlDB.Close()
			}
		})
	}
	s.Run(apiRouter)
}

func (s *Server) Run(rs ...Router) {
	var wg sync.WaitGroup
	wg.Add(1)

	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	for _, r := range rs {
		r.Load(g)
	}

	log := logger.L().Sugar()

	// health check
	go func() {
		if err := Ping(s.config.Listen, 10); err != nil {
			log.Fatal("server no response")
		}
		log.Infof("server started success! port: %s", s.config.Listen)
	}()

	srv := http.Server{
		Addr:    s.config.Listen,
		Handler: g,
	}
	if s.f != nil {
		srv.RegisterOnShutdown(s.f)
	}

	// graceful shutdown
	sgn := make(chan os.Signal, 1)
	signal.Notify(sgn, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sgn
		log.Info("server shutdown")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("server shutdown err %v", err)
		}
		wg.Done()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("server start failed on port %s", s.config.Listen)
		return
	}
	wg.Wait()
	log.Infof("server stop on port %s", s.config.Listen)
}

// RegisterOnShutdown 注册 shutdown 后的回调处理函数，用于清理资源
func (s *Server) RegisterOnShutdown(_f func()) {
	s.f = _f
}

// Ping 用来检查是否程序正常启动
func Ping(port string, maxCount int) error {
	seconds := 1
	if len(port) == 0 {
		panic("Please specify the service port")
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	url := fmt.Sprintf("http://localhost%s/ping", port)
	for i := 0; i < maxCount; i++ {
		resp, err := http.Get(url)
		if nil == err && resp != nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		logger.L().Sugar().Infof("等待服务在线, 已等待 %d 秒，最多等待 %d 秒", seconds, maxCount)
		time.Sleep(time.Second * 1)
		seconds++
	}
	return fmt.Errorf("服务启动失败，端口 %s", port)
}
