package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	IsDebug  *bool  `yaml:"is_debug"`
	TimeZone string `yaml:"time_zone" env-default:"UTC"`
	Listen   struct {
		BindIP   string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env-default:"5000"`
		TLS      bool   `yaml:"tls_enabled" env-default:"false"`
		CertFile string `yaml:"cert_file" env-default:""`
		KeyFile  string `yaml:"key_file" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env-default:"pmsync"`
	} `yaml:"mongo"`
	Portfolio struct {
		BaseURL  string `yaml:"base_url" env-default:"https://portfoliomanager.energystar.gov/wstest"`
		Username string `yaml:"username" env:"PM_USERNAME" env-default:""`
		Password string `yaml:"password" env:"PM_PASSWORD" env-default:""`
		Mock     bool   `yaml:"mock" env:"PM_MOCK" env-default:"false"`
		Timeout  int    `yaml:"timeout_seconds" env-default:"60"`
	} `yaml:"portfolio_manager"`
	Analysis struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		URL     string `yaml:"url" env-default:"http://127.0.0.1:5001"`
		Token   string `yaml:"token" env:"ANALYSIS_TOKEN" env-default:""`
	} `yaml:"analysis"`
	Upload struct {
		MaxBytes int64 `yaml:"max_bytes" env-default:"10485760"`
	} `yaml:"upload"`
	S3 struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		Region  string `yaml:"region" env-default:"us-east-1"`
		Bucket  string `yaml:"bucket" env-default:""`
		Prefix  string `yaml:"prefix" env-default:"utility-uploads"`
	} `yaml:"s3"`
	SNS struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Region   string `yaml:"region" env-default:"us-east-1"`
		TopicArn string `yaml:"topic_arn" env-default:""`
	} `yaml:"sns"`
	Telegram struct {
		Enabled bool    `yaml:"enabled" env-default:"false"`
		ApiKey  string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		ChatIDs []int64 `yaml:"chat_ids"`
	} `yaml:"telegram"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port    string `yaml:"port" env-default:"9100"`
	} `yaml:"metrics"`
}

func Load(path string) (*Config, error) {
	log.Println("reading config", path)
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		log.Println(desc)
		return nil, err
	}
	return conf, nil
}

func (c *Config) Debug() bool {
	return c.IsDebug != nil && *c.IsDebug
}
