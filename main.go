package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"deckagent/internal/agent"
	"deckagent/internal/config"
	"deckagent/internal/tools"
	"deckagent/internal/volc"
)

func main() {
	// 加载配置并初始化日志
	cfg, err := config.Load(os.Getenv("DECK_CONFIG"))
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := config.InitLogging(cfg); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	// 初始化ArkClient与ChatModel
	arkClient := volc.NewArkClientDefault()
	chatModel, err := ark.NewChatModel(context.Background(), &ark.ChatModelConfig{
		APIKey: os.Getenv("ARK_API_KEY"),
		Model:  cfg.Models.Chat,
	})
	if err != nil {
		log.Fatalf("初始化ChatModel失败: %v", err)
	}

	// 初始化工具
	tableTool := tools.NewTableQueryTool(arkClient, cfg.Models.TableQuery)
	docTool := tools.NewDocSearchTool(arkClient, cfg.Models.DocSearch)

	// 初始化会话管理器
	manager := agent.NewManager(chatModel, tableTool, docTool, cfg.Theme)

	// 初始化Gin路由
	router := gin.Default()
	router.POST("/chat", handleChat(manager))
	router.GET("/chat/status/:session_id", handleChatStatus(manager))
	router.GET("/slides/html/:session_id", handleSlidesHTML(manager))
	router.POST("/slides/reset/:session_id", handleSlidesReset(manager))
	router.POST("/slides/export/:session_id", handleSlidesExport(manager))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	// 在goroutine中启动服务器
	go func() {
		logrus.Infof("服务器启动在 %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("关闭服务器...")

	// 优雅关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器关闭失败: %v", err)
	}
	logrus.Info("服务器已关闭")
}

// handleChat 接收用户消息，异步执行，本轮日志通过状态接口轮询获取
func handleChat(manager *agent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		a := manager.Get(req.SessionID)

		// 空消息不触发处理，直接返回当前日志
		dispatched := strings.TrimSpace(req.Message) != ""
		if dispatched {
			// 立即返回，处理在后台进行
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				defer cancel()
				if _, err := a.ProcessMessage(ctx, req.Message); err != nil {
					logrus.WithField("session_id", req.SessionID).WithError(err).Error("处理消息失败")
				}
			}()
		}

		msgs := a.Messages()
		c.JSON(http.StatusOK, gin.H{
			"session_id":    req.SessionID,
			"messages":      msgs,
			"message_count": len(msgs),
			"processing":    dispatched,
		})
	}
}

// handleChatStatus 轮询接口：返回完整对话记录与处理状态
func handleChatStatus(manager *agent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := manager.Lookup(c.Param("session_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		msgs := a.Messages()
		c.JSON(http.StatusOK, gin.H{
			"messages":      msgs,
			"message_count": len(msgs),
			"processing":    a.Processing(),
		})
	}
}

// handleSlidesHTML 返回拼接后的整副幻灯片HTML
func handleSlidesHTML(manager *agent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := manager.Lookup(c.Param("session_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(a.ExportHTML()))
	}
}

// handleSlidesReset 清空会话的Deck与对话记录
func handleSlidesReset(manager *agent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := manager.Lookup(c.Param("session_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		a.Reset()
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	}
}

// handleSlidesExport 把幻灯片落盘导出
func handleSlidesExport(manager *agent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := manager.Lookup(c.Param("session_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
			return
		}
		path := fmt.Sprintf("output/deck_%s.html", c.Param("session_id"))
		if err := a.Save(path); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("导出失败: %v", err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path, "slide_count": len(a.Slides())})
	}
}
