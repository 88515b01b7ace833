// Package config provides configuration management for the mpix service.
//
// Configuration is assembled in three layers, later layers winning:
//
//  1. built-in defaults (DefaultConfig)
//  2. an optional YAML file, with ${VAR} and ${VAR:-default} substitution
//  3. process environment overrides (ENV, REDIS_URL, AUTH_TOKEN, MPIX_*)
//
// The result is checked by Validate before anything connects to Redis or
// opens a listener; a validation failure is fatal at startup.
//
// Example YAML:
//
//	env: ${ENV:-local}
//	server:
//	  address: ":4000"
//	redis:
//	  url: ${REDIS_URL}
//	  operationTimeout: 2s
//	auth:
//	  token: ${AUTH_TOKEN}
package config
