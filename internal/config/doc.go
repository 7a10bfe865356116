// Package config provides configuration management for reviewscan.
//
// Configuration comes from three places, applied in order: built-in
// defaults (NewConfig), the optional YAML file (.reviewscan) with
// per-site extraction and request settings, and command-line flags.
// Directory defaults follow the XDG Base Directory Specification.
package config
