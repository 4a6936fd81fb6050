package runtime

// VM holds the configuration of a hardware virtualized container.
type VM struct {
	Hypervisor *VMHypervisor `json:"hypervisor,omitempty"`
	Kernel     VMKernel      `json:"kernel"`
	Image      *VMImage      `json:"image,omitempty"`
}

type VMHypervisor struct {
	Path       string   `json:"path"`
	Parameters []string `json:"parameters,omitempty"`
}

type VMKernel struct {
	Path       string   `json:"path"`
	Parameters []string `json:"parameters,omitempty"`
	InitRD     string   `json:"initrd,omitempty"`
}

// VMImage is the root image of the virtual machine, e.g. format "raw" or
// "qcow2".
type VMImage struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}
