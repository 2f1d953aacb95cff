package infra

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// Edge process names per platform.
var edgeProcessNames = []string{"msedge", "msedge.exe", "Microsoft Edge"}

// EdgeInspector implements domain.BrowserInspector using gopsutil.
type EdgeInspector struct{}

// NewEdgeInspector creates an Edge process inspector.
func NewEdgeInspector() domain.BrowserInspector {
	return &EdgeInspector{}
}

// RunningPIDs returns PIDs of running Edge browser processes.
func (i *EdgeInspector) RunningPIDs() ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		for _, want := range edgeProcessNames {
			if strings.EqualFold(name, want) {
				found = append(found, int(p.Pid))
				break
			}
		}
	}
	return found, nil
}

// Ensure EdgeInspector implements domain.BrowserInspector.
var _ domain.BrowserInspector = (*EdgeInspector)(nil)
