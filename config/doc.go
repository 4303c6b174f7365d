// Package config loads bridge settings from YAML and MBRIDGE_* variables.
//
//	engine: local
//	marker: GTMCI
//	env:
//	  GTMCI: /opt/mbridge/mbridge.ci
//	routines: ./routines
//	store:
//	  driver: sqlite3
//	  dsn: /var/lib/mbridge/globals.db
//	log:
//	  level: debug
package config
