package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"remaster/internal/config"
)

// Status reports the availability of one configured external tool.
type Status struct {
	Name      string
	Command   string
	Optional  bool
	Available bool
	Detail    string
}

// Capabilities captures the startup probe of the four pipeline tools. Stages
// consult this value instead of probing PATH per file.
type Capabilities struct {
	Encoder   Status
	Splitter  Status
	TagExport Status
	TagWrite  Status
}

// Probe checks each configured tool command once. The encoder is required;
// a missing splitter or tag tool only disables the matching capability.
func Probe(cfg *config.Config) Capabilities {
	return Capabilities{
		Encoder:   probeCommand("Encoder", cfg.Tools.Encoder, false),
		Splitter:  probeCommand("Splitter", cfg.Tools.Splitter, true),
		TagExport: probeCommand("Tag export", cfg.Tools.TagExport, true),
		TagWrite:  probeCommand("Tag write", cfg.Tools.TagWrite, true),
	}
}

func probeCommand(name, command string, optional bool) Status {
	status := Status{
		Name:     name,
		Command:  strings.TrimSpace(command),
		Optional: optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	return status
}

// CanSplit reports whether cue-aware splitting is possible.
func (c Capabilities) CanSplit() bool {
	return c.Splitter.Available
}

// CanTag reports whether metadata propagation is possible. The export and
// write tools are only useful as a pair.
func (c Capabilities) CanTag() bool {
	return c.TagExport.Available && c.TagWrite.Available
}

// List returns the statuses in display order.
func (c Capabilities) List() []Status {
	return []Status{c.Encoder, c.Splitter, c.TagExport, c.TagWrite}
}
