package settings

import (
	"time"

	"github.com/spf13/viper"
)

// AppConfig 全局配置，启动时由 Init 填充
type AppConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	APIKey       string `mapstructure:"banana_api_key"`
	APIURL       string `mapstructure:"banana_api_url"`
	ModelKey     string `mapstructure:"banana_model_key"`
	RedisAddr    string `mapstructure:"redis_addr"`
	HistoryDir   string `mapstructure:"history_dir"`
	TaskMaxAge   time.Duration
	TaskMaxAgeS  int `mapstructure:"task_max_age_seconds"`
	SweepEveryS  int `mapstructure:"task_sweep_interval_seconds"`
	SweepEvery   time.Duration
}

var Conf = new(AppConfig)

// Init 加载配置：默认值 < 配置文件(可选) < 环境变量
func Init(configFile string) error {
	viper.SetDefault("port", 8080)
	viper.SetDefault("mode", "release")
	viper.SetDefault("banana_api_url", "https://ai.comfly.chat/v1")
	viper.SetDefault("banana_model_key", "nano-banana-2")
	viper.SetDefault("redis_addr", "localhost:6379")
	viper.SetDefault("history_dir", "./static/history")
	viper.SetDefault("task_max_age_seconds", 3600)
	viper.SetDefault("task_sweep_interval_seconds", 600)

	viper.AutomaticEnv()
	_ = viper.BindEnv("banana_api_key", "BANANA_API_KEY")
	_ = viper.BindEnv("banana_api_url", "BANANA_API_URL")
	_ = viper.BindEnv("banana_model_key", "BANANA_MODEL_KEY")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("port", "PORT")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	if err := viper.Unmarshal(Conf); err != nil {
		return err
	}
	Conf.TaskMaxAge = time.Duration(Conf.TaskMaxAgeS) * time.Second
	Conf.SweepEvery = time.Duration(Conf.SweepEveryS) * time.Second
	return nil
}
