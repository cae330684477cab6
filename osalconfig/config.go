// Package osalconfig holds the compile-time configuration structure of
// spec.md §6: per-class table sizes and the handful of feature flags that
// in the original C implementation are preprocessor constants baked in at
// build time. Here they are a plain Go struct, loaded once at process
// start and treated as immutable afterward (no component may reconfigure
// a running table).
package osalconfig

import (
	jsoniter "github.com/json-iterator/go"
)

// Config mirrors the "Compile-time configuration structure" of spec.md §6.
type Config struct {
	MaxTasks            int `json:"max_tasks"`
	MaxQueues           int `json:"max_queues"`
	MaxBinSemaphores    int `json:"max_bin_semaphores"`
	MaxCountSemaphores  int `json:"max_count_semaphores"`
	MaxMutexes          int `json:"max_mutexes"`
	MaxNumOpenFiles     int `json:"max_num_open_files"`
	MaxNumOpenDirs      int `json:"max_num_open_dirs"`
	MaxTimeBases        int `json:"max_timebases"`
	MaxTimers           int `json:"max_timers"`
	MaxModules          int `json:"max_modules"`
	MaxFileSystems      int `json:"max_file_systems"`
	MaxConsoles         int `json:"max_consoles"`
	MaxCondVars         int `json:"max_condvars"`
	SockAddrMaxLen      int `json:"sockaddr_max_len"`
	IncludeStaticLoader bool `json:"include_static_loader"`
	DebugPrintf         bool `json:"debug_printf"`
}

// Default matches the typical reference build of the original OSAL: small
// fixed tables, sized for an embedded flight-software image rather than a
// general-purpose host.
func Default() Config {
	return Config{
		MaxTasks:            32,
		MaxQueues:           32,
		MaxBinSemaphores:    32,
		MaxCountSemaphores:  32,
		MaxMutexes:          32,
		MaxNumOpenFiles:     32,
		MaxNumOpenDirs:      8,
		MaxTimeBases:        4,
		MaxTimers:           16,
		MaxModules:          8,
		MaxFileSystems:      8,
		MaxConsoles:         2,
		MaxCondVars:         16,
		SockAddrMaxLen:      28,
		IncludeStaticLoader: true,
		DebugPrintf:         true,
	}
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadJSON decodes a Config from JSON, starting from Default() so any
// field omitted from the document keeps its default value.
func LoadJSON(data []byte) (Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalJSON round-trips a Config.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	return json.Marshal(alias(c))
}
