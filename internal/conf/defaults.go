// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "PropScope")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/propscope.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("registry.baseurl", "https://data.cityofnewyork.us")
	viper.SetDefault("registry.apptoken", "")
	viper.SetDefault("registry.apptokenfile", "")
	viper.SetDefault("registry.timeout", 30)
	viper.SetDefault("registry.cachettl", 300)
	viper.SetDefault("registry.ratelimit", 5.0)
	viper.SetDefault("registry.debug", false)
	viper.SetDefault("registry.datasets.parcels", "64uk-42ks")
	viper.SetDefault("registry.datasets.sales", "usep-8jbt")
	viper.SetDefault("registry.datasets.exemptions", "muvi-b6kx")
	viper.SetDefault("registry.datasets.abatements", "dm5y-7i8g")

	viper.SetDefault("comps.defaultcount", 10)
	viper.SetDefault("comps.maxcount", 50)
	viper.SetDefault("comps.overfetchfactor", 3)
	viper.SetDefault("comps.nominalsaleprice", 10000)
	viper.SetDefault("comps.enrichconcurrency", 4)
	viper.SetDefault("comps.includeadjacent", true)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("webserver.log.enabled", false)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)
	viper.SetDefault("webserver.log.rotationday", time.Sunday)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.debug", false)
}
