// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "datums")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "datums.log")

	viper.SetDefault("reporter.path", "reporter/")
	viper.SetDefault("reporter.questions", "questions.json")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "datums.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "datums")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "datums")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
