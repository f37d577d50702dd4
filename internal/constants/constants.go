// Package constants defines shared constants used across the gitguard codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvConfigDir = "GITGUARD_CONFIG"
	EnvProfile   = "GITGUARD_PROFILE"
	EnvLogLevel  = "GITGUARD_LOG_LEVEL"
)

// Application paths
const (
	AppName         = "gitguard"
	XDGConfigSubdir = ".config"
	XDGDataSubdir   = ".local/share"
	ConfigFileName  = "config.toml"
	AuditFileName   = "audit.log"
)

// Hook set names, as used on the command line and in config.
const (
	HookProtectBranches = "protect-branches"
	HookGitSafe         = "git-safe"
	HookToolSurface     = "gh-mcp"
)
