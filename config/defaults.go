package config

// Default returns the default simulator configuration.
func Default() *Config {
	return &Config{
		DataDir:    DefaultDataDir(),
		ContractID: "mt",
		Storage:    StorageMemory,
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
