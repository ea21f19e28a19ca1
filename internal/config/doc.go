// Package config loads the server configuration.
//
// Values are layered, later sources winning: built-in defaults, the TOML
// config file, a .env file and the process environment. Variables already
// present in the environment are never overwritten by the .env file. Command
// line flags are applied on top by the cmd package.
package config
