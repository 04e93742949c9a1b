// Package config handles discovery, parsing, and validation of the
// devstrap project configuration (devstrap.yaml / devstrap.jsonc)
// and the project's dotenv file.
//
// The package guarantees that a fully-defaulted, validated Config is
// always available: no config file means built-in defaults that
// reproduce the classic venv + pip + uvicorn + npm bootstrap.
package config
