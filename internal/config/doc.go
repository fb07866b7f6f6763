// Package config loads sealsheet settings with viper.
//
// Sources, lowest precedence first: built-in defaults, .sealsheet.yaml in
// the working directory (or ~/.config/sealsheet/config.yaml), SEALSHEET_*
// environment variables, command flags.
package config
