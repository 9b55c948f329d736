package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MilvusConfig 定义了 Milvus 数据库的连接配置。
type MilvusConfig struct {
	Address string `yaml:"address"` // Milvus 服务地址
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 默认存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // Kafka 主题列表
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 数据库配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	MySQL   MySQLConfig  `yaml:"mysql"`   // MySQL 数据库配置
	MinIO   MinIOConfig  `yaml:"minio"`   // MinIO 对象存储配置
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig  `yaml:"kafka"`   // Kafka 消息队列配置
}

// AuthConfig 用于配置认证方法和相关设置。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
	TokenTTL  int    `yaml:"tokenTTL"`  // JWT 令牌的有效期（秒）
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// OpenAIConfig 包含了 OpenAI 兼容模型的配置。
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`  // OpenAI API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务基础 URL (可选, 用于兼容网关)
}

// OllamaConfig 包含了本地 Ollama 模型的配置。
type OllamaConfig struct {
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // Ollama 服务地址
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商 (例如: "gemini", "openai", "ollama")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 模型配置
}

// EmbeddingConfig 包含了不同Embedding提供商的配置。
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"`  // Embedding提供商 (例如: "gemini", "openai", "ollama")
	Dimension int          `yaml:"dimension"` // 嵌入向量维度 (text-embedding-004 为 768)
	Gemini    GeminiConfig `yaml:"gemini"`    // Gemini 模型配置
	OpenAI    OpenAIConfig `yaml:"openai"`    // OpenAI 模型配置
	Ollama    OllamaConfig `yaml:"ollama"`    // Ollama 模型配置
}

// IngestionConfig 定义了文档切分与索引构建的参数。
type IngestionConfig struct {
	ChunkSize         int `yaml:"chunkSize"`         // 每个文本块的最大字符数
	ChunkOverlap      int `yaml:"chunkOverlap"`      // 相邻文本块之间的重叠字符数
	EmbedBatchSize    int `yaml:"embedBatchSize"`    // 单次嵌入请求的最大文本数
	EmbedMaxRetries   int `yaml:"embedMaxRetries"`   // 嵌入请求的最大重试次数
	IndexReadyTimeout int `yaml:"indexReadyTimeout"` // 等待索引就绪的最长时间 (秒)
}

// TimeoutConfig 定义了各类外部调用的超时时间 (秒)。
type TimeoutConfig struct {
	Embedding  int `yaml:"embedding"`  // 单次嵌入调用超时
	Search     int `yaml:"search"`     // 向量检索超时
	Generation int `yaml:"generation"` // LLM 生成调用超时
}

// YouTubeConfig 定义了 YouTube Data API 的配置。
type YouTubeConfig struct {
	APIKey     string `yaml:"apiKey"`     // YouTube Data API 密钥
	MaxResults int64  `yaml:"maxResults"` // 单次搜索返回的最大结果数
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
	HTTPPort    int    `yaml:"httpPort"`    // HTTP 服务监听端口
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Auth      AuthConfig      `yaml:"auth"`      // 认证配置
	LLM       LLMConfig       `yaml:"llm"`       // LLM 配置部分
	Embedding EmbeddingConfig `yaml:"embedding"` // Embedding 配置部分
	Ingestion IngestionConfig `yaml:"ingestion"` // 文档切分与索引配置
	Timeouts  TimeoutConfig   `yaml:"timeouts"`  // 外部调用超时配置
	YouTube   YouTubeConfig   `yaml:"youtube"`   // YouTube 推荐配置
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Databases DatabaseConfigs `yaml:"databases"` // 数据库配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil // 返回解析后的配置和nil错误。
}

// applyDefaults 为未配置的切分与超时参数填充默认值。
func (c *AppConfig) applyDefaults() {
	if c.Ingestion.ChunkSize == 0 {
		c.Ingestion.ChunkSize = 1000
	}
	if c.Ingestion.ChunkOverlap == 0 {
		c.Ingestion.ChunkOverlap = 200
	}
	if c.Ingestion.EmbedBatchSize == 0 {
		c.Ingestion.EmbedBatchSize = 100
	}
	if c.Ingestion.EmbedMaxRetries == 0 {
		c.Ingestion.EmbedMaxRetries = 3
	}
	if c.Ingestion.IndexReadyTimeout == 0 {
		c.Ingestion.IndexReadyTimeout = 45
	}
	if c.Timeouts.Embedding == 0 {
		c.Timeouts.Embedding = 30
	}
	if c.Timeouts.Search == 0 {
		c.Timeouts.Search = 15
	}
	if c.Timeouts.Generation == 0 {
		c.Timeouts.Generation = 120
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 768
	}
	if c.YouTube.MaxResults == 0 {
		c.YouTube.MaxResults = 5
	}
	if c.App.HTTPPort == 0 {
		c.App.HTTPPort = 8080
	}
}
