package calibration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ajkhattak/ngen-cal/internal/monitoring"
)

// iteration artifacts archived after each run
var archivePatterns = []string{
	"cat-*.csv", // per-catchment runoff
	"nex-*.csv", // nexus lateral flows
	"tnx-*.csv", // terminal nexus
	"cnx-*.csv", // coastal nexus
}

// Job is one calibration run's working directory.
type Job struct {
	Workdir string
	// RoutingOutput is the routing output file name archived with each
	// iteration's artifacts.
	RoutingOutput string
}

// NewJob creates a uniquely suffixed working directory under base.
func NewJob(base, name string, routingOutput string) (*Job, error) {
	dir := filepath.Join(base, fmt.Sprintf("%s_%s", name, uuid.NewString()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job workdir %s: %v", dir, err)
	}
	monitoring.Logf("calibration job workdir: %s", dir)
	return &Job{Workdir: dir, RoutingOutput: routingOutput}, nil
}

// ArchiveIteration moves the iteration's simulator outputs into
// output_<i>/ under the workdir so later iterations cannot re-read them and
// the run remains inspectable afterwards.
func (j *Job) ArchiveIteration(i int) error {
	outDir := filepath.Join(j.Workdir, fmt.Sprintf("output_%d", i))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %v", outDir, err)
	}
	for _, pattern := range archivePatterns {
		matches, err := filepath.Glob(filepath.Join(j.Workdir, pattern))
		if err != nil {
			return fmt.Errorf("failed to glob %s: %v", pattern, err)
		}
		for _, m := range matches {
			if err := os.Rename(m, filepath.Join(outDir, filepath.Base(m))); err != nil {
				return fmt.Errorf("failed to archive %s: %v", m, err)
			}
		}
	}
	routing := filepath.Join(j.Workdir, j.RoutingOutput)
	if _, err := os.Stat(routing); err == nil {
		if err := os.Rename(routing, filepath.Join(outDir, j.RoutingOutput)); err != nil {
			return fmt.Errorf("failed to archive routing output: %v", err)
		}
	}
	return nil
}
