package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"deckagent/internal/model"
)

// Config 服务配置，来自yaml文件，环境变量可覆盖关键项
type Config struct {
	Addr    string           `yaml:"addr"`     // HTTP监听地址
	LogFile string           `yaml:"log_file"` // 日志文件路径，为空时只输出到stderr
	Models  Models           `yaml:"models"`   // 各环节使用的模型端点
	Theme   model.SlideTheme `yaml:"theme"`    // deck外观默认值
}

// Models 模型端点配置
type Models struct {
	Chat       string `yaml:"chat"`        // 意图识别/规划/生成
	TableQuery string `yaml:"table_query"` // text2sql数据服务
	DocSearch  string `yaml:"doc_search"`  // 知识库检索
}

func defaults() *Config {
	return &Config{
		Addr: ":8080",
		Models: Models{
			Chat:       "ep-20250220181854-c8s82",
			TableQuery: "ep-20250220181854-c8s82",
			DocSearch:  "ep-20250220181854-c8s82",
		},
	}
}

// Load 读取yaml配置，文件不存在时使用默认值
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	// 环境变量覆盖
	if v := os.Getenv("DECK_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ARK_CHAT_MODEL"); v != "" {
		cfg.Models.Chat = v
	}
	return cfg, nil
}

// InitLogging 初始化日志：文本格式带完整时间戳，可选写入日志文件
func InitLogging(cfg *Config) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.LogFile == "" {
		return nil
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return nil
}
