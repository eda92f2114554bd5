package kasactl

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/swelldreams/kasactl/internal/util"
)

// LoadConfig loads a config file at the specified path. Some general
// considerations about how this is done with spf13/viper:
//
// 1. There are intentionally no search paths set, so the config path
// has to be passed explicitly.
// 2. The tool never writes to the config file.
// 3. Parameters passed as CLI flags and environment variables always
// take precedence over values from the config.
func LoadConfig(path string) error {
	// check before handing the path to viper to prevent it from
	// searching for a config the user never created
	if _, exists := util.PathExists(path); !exists {
		return fmt.Errorf("config file not found: %s", path)
	}
	dir, filename, ext := util.SplitConfigPath(path)
	viper.AddConfigPath(dir)
	viper.SetConfigName(filename)
	viper.SetConfigType(ext)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to load config file: %w", err)
	}
	return nil
}
