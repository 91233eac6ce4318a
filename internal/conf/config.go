package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/archive"
	"github.com/lk2023060901/file-storage-backend/internal/filestore"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/minio"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/redis"
	"github.com/lk2023060901/file-storage-backend/internal/search"
	stagingbiz "github.com/lk2023060901/file-storage-backend/internal/staging/biz"
	tagdata "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/data"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 FSB_DATABASE_HOST 覆盖 database.host
const EnvPrefix = "FSB"

type Config struct {
	Server    *ServerConfig             `mapstructure:"server"`
	Database  *database.Config          `mapstructure:"database"`
	Redis     *redis.Config             `mapstructure:"redis"`
	MinIO     *minio.Config             `mapstructure:"minio"`
	Log       *logger.Config            `mapstructure:"log"`
	Storage   *filestore.Config         `mapstructure:"storage"`
	Search    *search.Config            `mapstructure:"search"`
	Archive   *archive.Config           `mapstructure:"archive"`
	Sweeper   *stagingbiz.SweeperConfig `mapstructure:"sweeper"`
	Templates *TemplatesConfig          `mapstructure:"templates"`
	Metrics   *metrics.Config           `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Mode               string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxMultipartMemory int64         `mapstructure:"max_multipart_memory"`
	CORS               CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string      `mapstructure:"allow_origins"`
	AllowMethods []string      `mapstructure:"allow_methods"`
	AllowHeaders []string      `mapstructure:"allow_headers"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

type TemplatesConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default 返回全部默认值，配置文件和环境变量在此基础上覆盖
func Default() *Config {
	return &Config{
		Server: &ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			Mode:               "release",
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       0,
			ShutdownTimeout:    5 * time.Second,
			MaxMultipartMemory: 8 << 20,
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowHeaders: []string{"Origin", "Content-Type", "Content-Range", "X-Request-ID"},
				MaxAge:       12 * time.Hour,
			},
		},
		Database:  database.DefaultConfig(),
		Redis:     redis.DefaultConfig(),
		MinIO:     minio.DefaultConfig(),
		Log:       logger.DefaultConfig(),
		Storage:   filestore.DefaultConfig(),
		Search:    search.DefaultConfig(),
		Archive:   archive.DefaultConfig(),
		Sweeper:   stagingbiz.DefaultSweeperConfig(),
		Templates: &TemplatesConfig{CacheSize: tagdata.DefaultCacheSize},
		Metrics:   metrics.DefaultConfig(),
	}
}

// LoadConfig 读取 YAML 配置文件，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.NewWithOptions(
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_")),
		viper.ExperimentalBindStruct(),
	)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Validate 校验各子配置；redis 和 minio 只在对应功能开启时校验
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Storage.Root == "" {
		return errors.New("storage: root is required")
	}
	if c.Search.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	if c.Archive.Enabled {
		if err := c.MinIO.Validate(); err != nil {
			return err
		}
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	return c.Sweeper.Validate()
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server: invalid mode %q", c.Mode)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("server: shutdown_timeout must be > 0")
	}
	if c.MaxMultipartMemory < 0 {
		return errors.New("server: max_multipart_memory must be >= 0")
	}
	return nil
}
