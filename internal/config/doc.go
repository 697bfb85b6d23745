// Package config loads the alfaapp configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ALFA_<SECTION>_<FIELD>:
//
//	ALFA_SERVER_PORT=8080
//	ALFA_LOGGING_LEVEL=debug
//	ALFA_ANALYSIS_PLOT_STYLE=histogram
//	ALFA_STORAGE_BACKEND=minio
//	ALFA_STORAGE_MINIO_ENDPOINT=localhost:9000
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use Default(), which needs no environment or files.
package config
