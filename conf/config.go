package conf

import (
	"path/filepath"

	"github.com/zhukovaskychina/xengine/logger"

	"gopkg.in/ini.v1"
)

// Cfg 引擎配置。缺省值面向教学场景的小规模数据集
type Cfg struct {
	Raw *ini.File

	DataDir  string
	DataFile string

	// buffer_pool
	BufferPoolSize int
	ReplacerK      int

	// log
	LogPath  string
	LogLevel string
}

// NewDefaultCfg 返回默认配置
func NewDefaultCfg() *Cfg {
	return &Cfg{
		DataDir:        "data",
		DataFile:       "xengine.db",
		BufferPoolSize: 64,
		ReplacerK:      2,
		LogLevel:       "info",
	}
}

// Load 从ini文件加载配置，文件缺失或字段缺省时保留默认值
func Load(configPath string) *Cfg {
	cfg := NewDefaultCfg()
	if configPath == "" {
		return cfg
	}

	raw, err := ini.Load(configPath)
	if err != nil {
		logger.Warnf("Failed to load config %s, using defaults: %v", configPath, err)
		return cfg
	}
	cfg.Raw = raw

	storage := raw.Section("storage")
	cfg.DataDir = storage.Key("data_dir").MustString(cfg.DataDir)
	cfg.DataFile = storage.Key("data_file").MustString(cfg.DataFile)

	pool := raw.Section("buffer_pool")
	cfg.BufferPoolSize = pool.Key("pool_size").MustInt(cfg.BufferPoolSize)
	cfg.ReplacerK = pool.Key("replacer_k").MustInt(cfg.ReplacerK)

	log := raw.Section("log")
	cfg.LogPath = log.Key("log_path").MustString(cfg.LogPath)
	cfg.LogLevel = log.Key("log_level").MustString(cfg.LogLevel)

	return cfg
}

// DataFilePath 返回数据文件完整路径
func (c *Cfg) DataFilePath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}
