package config

// Default supported upload extensions for import directories.
var defaultImportExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/insyte/data/db/insyte.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/insyte/data/indices/project.idx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 20
	}
	if cfg.Search.DefaultMinSimilarity == 0 {
		cfg.Search.DefaultMinSimilarity = 25
	}
	if cfg.Search.MaxQAPairs == 0 {
		cfg.Search.MaxQAPairs = 10
	}
	for i := range cfg.Imports {
		if len(cfg.Imports[i].Extensions) == 0 {
			cfg.Imports[i].Extensions = defaultImportExtensions
		}
	}
}
