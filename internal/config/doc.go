// Package config provides centralized configuration for the insight report
// engine.
//
// # Configuration Sources
//
// Configuration is built in layers, each overriding the previous one:
//
//	1. Default() values
//	2. YAML file named by INSIGHT_CONFIG (or the -config flag)
//	3. Environment variables
//
// Keys missing from the YAML file keep their defaults, and unset environment
// variables leave the value untouched.
//
// # Environment Variables
//
// Variables follow the pattern INSIGHT_<SECTION>_<FIELD>:
//
//	INSIGHT_SERVER_PORT=8080
//	INSIGHT_STORE_DRIVER=sqlite
//	INSIGHT_STORE_DSN=file:reports.db
//	INSIGHT_STORE_REDIS_URL=redis://localhost:6379/0
//	INSIGHT_ANALYTICS_DEFAULT_CPM=1500
//	INSIGHT_INSIGHTS_LOCALE=ja
//
// # Validation
//
// Validate runs after loading and reports every problem at once through
// errors.Join. It also lowercases enumerations and trims the trailing slash
// of the public base URL.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
