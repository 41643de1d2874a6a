// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"

	"github.com/tonylu00/bili-sync-sub002/internal/util"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port         int `mapstructure:"port"`
	ScanInterval int `mapstructure:"scan_interval"`
	Database     struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Library struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"library"`
	Credential struct {
		SessData   string `mapstructure:"sessdata"`
		BiliJct    string `mapstructure:"bili_jct"`
		Buvid3     string `mapstructure:"buvid3"`
		DedeUserID string `mapstructure:"dedeuserid"`
	} `mapstructure:"credential"`
	Downloader struct {
		Workers     int   `mapstructure:"workers"`
		Multithread bool  `mapstructure:"multithread"`
		MinSplitMB  int64 `mapstructure:"min_split_mb"`
		Aria2       struct {
			RPCURL string `mapstructure:"rpc_url"`
			Secret string `mapstructure:"secret"`
			Split  int    `mapstructure:"split"`
		} `mapstructure:"aria2"`
	} `mapstructure:"downloader"`
	Danmaku struct {
		Width    int     `mapstructure:"width"`
		Height   int     `mapstructure:"height"`
		FontSize int     `mapstructure:"font_size"`
		Duration float64 `mapstructure:"duration"`
		Density  int     `mapstructure:"density"`
	} `mapstructure:"danmaku"`
	Notify struct {
		WebhookURL string `mapstructure:"webhook_url"`
	} `mapstructure:"notify"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "BILISYNC_" prefix.
	// e.g., BILISYNC_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("BILISYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 12345)
	viper.SetDefault("scan_interval", 20)
	viper.SetDefault("database.path", "./bili-sync.db")
	viper.SetDefault("library.path", "./videos")
	viper.SetDefault("downloader.workers", util.DefaultWorkers())
	viper.SetDefault("downloader.multithread", true)
	viper.SetDefault("downloader.min_split_mb", 16)
	viper.SetDefault("downloader.aria2.rpc_url", "http://127.0.0.1:6800/jsonrpc")
	viper.SetDefault("downloader.aria2.split", util.DefaultSplit())
	viper.SetDefault("danmaku.width", 1920)
	viper.SetDefault("danmaku.height", 1080)
	viper.SetDefault("danmaku.font_size", 38)
	viper.SetDefault("danmaku.duration", 12.0)
	viper.SetDefault("danmaku.density", util.DefaultDanmakuDensity())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
