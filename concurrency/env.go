package concurrency

import (
	"github.com/spf13/viper"
)

const (
	envPrefix = "TOKWORK"
	envKey    = "thread_limit"
	envVar    = "TOKWORK_THREAD_LIMIT"
)

// readOverride returns the limit argument found in the environment, or
// 0 if there is none. A value that does not parse as an integer counts
// as no override.
func readOverride() int {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetDefault(envKey, 0)
	if err := v.BindEnv(envKey); err != nil {
		return 0
	}
	return v.GetInt(envKey)
}
