// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/app"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
)

func main() {
	log.Println("🚀 启动 Narrative Nurture Box 服务器...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 配置加载完成，端口: %s，存储: %s", cfg.Port, cfg.Store.Backend)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 初始化日志、服务和路由
	if err := app.Initialize(cfg); err != nil {
		log.Fatalf("❌ 初始化应用失败: %v", err)
	}

	log.Printf("🌐 服务器启动在端口 %s", cfg.Port)
	log.Printf("🔗 分镜页面: http://localhost:%s/storyboard", cfg.Port)
	log.Printf("🔗 角色库: http://localhost:%s/characters", cfg.Port)

	// 3. 运行直到收到中断信号
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ 服务器异常退出: %v", err)
	}
	log.Println("✅ 服务器优雅关闭完成")
}
