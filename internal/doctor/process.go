package doctor

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
)

var packageManagers = map[string]struct{}{
	"pacman": {}, "pamac": {}, "pamac-daemon": {}, "yay": {}, "paru": {}, "packagekitd": {},
}

// PackageManagerProcesses returns the pids of running package managers and
// of any process holding lockPath open.
func PackageManagerProcesses(ctx context.Context, lockPath string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	pids := []int32{}
	for _, p := range procs {
		if name, err := p.NameWithContext(ctx); err == nil {
			if _, ok := packageManagers[name]; ok {
				pids = append(pids, p.Pid)
				continue
			}
		}
		files, err := p.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.Path == lockPath {
				pids = append(pids, p.Pid)
				break
			}
		}
	}
	return pids, nil
}
