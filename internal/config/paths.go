package config

import (
	"os"
	"path/filepath"
)

// EnvRoot relocates every fixed path below a prefix directory.
const EnvRoot = "AURI_ROOT"

// Paths lists every file location auri touches. The defaults are fixed;
// AURI_ROOT only prefixes them (tests, chroots).
type Paths struct {
	Root            string
	BatchConfig     string
	SchedulerConfig string
	Settings        string
	ActivityLog     string
	StateDir        string
	PacmanLock      string
	PacmanConf      string
	MirrorList      string
	UnitDir         string
}

func DefaultPaths() Paths {
	return Paths{
		Root:            "/",
		BatchConfig:     "/etc/auri/batch.json",
		SchedulerConfig: "/etc/auri/scheduler.json",
		Settings:        "/etc/auri/auri.toml",
		ActivityLog:     "/var/log/auri.log",
		StateDir:        "/var/lib/auri",
		PacmanLock:      "/var/lib/pacman/db.lck",
		PacmanConf:      "/etc/pacman.conf",
		MirrorList:      "/etc/pacman.d/mirrorlist",
		UnitDir:         "/etc/systemd/system",
	}
}

// Under returns the default layout rooted at root.
func Under(root string) Paths {
	p := DefaultPaths()
	if root == "" || root == "/" {
		return p
	}
	join := func(path string) string { return filepath.Join(root, path) }
	return Paths{
		Root:            filepath.Clean(root),
		BatchConfig:     join(p.BatchConfig),
		SchedulerConfig: join(p.SchedulerConfig),
		Settings:        join(p.Settings),
		ActivityLog:     join(p.ActivityLog),
		StateDir:        join(p.StateDir),
		PacmanLock:      join(p.PacmanLock),
		PacmanConf:      join(p.PacmanConf),
		MirrorList:      join(p.MirrorList),
		UnitDir:         join(p.UnitDir),
	}
}

// PathsFromEnv honors AURI_ROOT.
func PathsFromEnv() Paths {
	return Under(os.Getenv(EnvRoot))
}
