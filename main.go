package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	// 初始化控制台
	InitFlag()
	// 开始安全退出任务
	InitSafeExit()
	// 初始化配置
	InitConf(configPath)
	// 初始化日志
	InitLog()

	// a store that cannot be opened stops the process here
	registry, err := NewRegistry(context.Background(), conf.Stores)
	if err != nil {
		log.Fatal(err)
	}

	if verify {
		_, err := VerifyAll(context.Background(), registry, conf.Task.Workers, conf.Task.BufSize, SafeExitInst)
		registry.Close()
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}
		return
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Server.Port),
		Handler: NewServer(registry, conf.Server.AllowOrigin).Handler(),
	}
	SafeExitInst.Register(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("server forced to shutdown: %s", err)
		}
	})
	SafeExitInst.Register(func() {
		if err := registry.Close(); err != nil {
			log.Error(err)
		}
		log.Info("tile stores closed")
	})

	log.Infof("%s listening for connections on port: %d", conf.App.Title, conf.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-SafeExitInst.Done()
}
