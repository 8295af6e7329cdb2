package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var conf *Conf

// StoreConf 瓦片存储配置
type StoreConf struct {
	Alias    string `mapstructure:"alias"`
	Path     string `mapstructure:"path"`
	Kind     string `mapstructure:"kind"`
	Driver   string `mapstructure:"driver"`
	Coverage string `mapstructure:"coverage"`
}

type Conf struct {
	App struct {
		Version string `mapstructure:"version"`
		Title   string `mapstructure:"title"`
	} `mapstructure:"app"`
	Server struct {
		Port        int    `mapstructure:"port"`
		AllowOrigin string `mapstructure:"allowOrigin"`
	} `mapstructure:"server"`
	Output struct {
		LogDir         string `mapstructure:"logDir"`
		OutputTerminal bool   `mapstructure:"outputTerminal"`
	} `mapstructure:"output"`
	Task struct {
		Workers int `mapstructure:"workers"`
		BufSize int `mapstructure:"bufSize"`
	} `mapstructure:"task"`
	Stores []StoreConf `mapstructure:"stores"`
}

// LoadConf reads a toml config file. Keys can be overridden from the
// environment, e.g. TILESERVER_SERVER_PORT.
func LoadConf(cfgFile string) (*Conf, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix("tileserver")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	v.SetDefault("app.version", "v 0.1.0")
	v.SetDefault("app.title", "MapCloud Tileserver")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.allowOrigin", "*")
	v.SetDefault("output.outputTerminal", true)
	v.SetDefault("task.workers", 4)
	v.SetDefault("task.bufSize", 64)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file(%s)", cfgFile)
	}
	c := new(Conf)
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrapf(err, "parse config file(%s)", cfgFile)
	}
	if len(c.Stores) == 0 {
		return nil, fmt.Errorf("config file(%s) declares no stores", cfgFile)
	}
	return c, nil
}

// InitConf 初始化配置
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist\n", cfgFile)
		os.Exit(1)
	}
	c, err := LoadConf(cfgFile)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	if port > 0 {
		c.Server.Port = port
	}
	conf = c
}
