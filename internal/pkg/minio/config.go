package minio

import (
	"errors"
	"time"
)

// BucketLookup 寻址方式：auto, dns (bucket.endpoint), path (endpoint/bucket)
type BucketLookup string

const (
	LookupAuto BucketLookup = "auto"
	LookupDNS  BucketLookup = "dns"
	LookupPath BucketLookup = "path"
)

// Config S3 兼容端点配置
type Config struct {
	Endpoint        string       `mapstructure:"endpoint"`
	AccessKeyID     string       `mapstructure:"access_key_id"`
	SecretAccessKey string       `mapstructure:"secret_access_key"`
	Region          string       `mapstructure:"region"`
	UseSSL          bool         `mapstructure:"use_ssl"`
	BucketLookup    BucketLookup `mapstructure:"bucket_lookup"`

	// HealthInterval 后台探活周期，0 关闭；关闭时 Ping 总是成功
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:       "localhost:9000",
		BucketLookup:   LookupAuto,
		HealthInterval: 30 * time.Second,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("minio: endpoint is required")
	case c.AccessKeyID == "" || c.SecretAccessKey == "":
		return errors.New("minio: access_key_id and secret_access_key are required")
	case c.HealthInterval < 0:
		return errors.New("minio: health_interval must be >= 0")
	}
	switch c.BucketLookup {
	case "", LookupAuto, LookupDNS, LookupPath:
		return nil
	}
	return errors.New("minio: bucket_lookup must be auto, dns or path")
}
