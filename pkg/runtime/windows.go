package runtime

// Windows holds platform-specific configuration for Windows containers.
type Windows struct {
	LayerFolders            []string          `json:"layerFolders"`
	Devices                 []WindowsDevice   `json:"devices,omitempty"`
	Resources               *WindowsResources `json:"resources,omitempty"`
	CredentialSpec          map[string]any    `json:"credentialSpec,omitempty"`
	Servicing               *bool             `json:"servicing,omitempty"`
	IgnoreFlushesDuringBoot *bool             `json:"ignoreFlushesDuringBoot,omitempty"`
	HyperV                  *WindowsHyperV    `json:"hyperv,omitempty"`
	Network                 *WindowsNetwork   `json:"network,omitempty"`
}

type WindowsDevice struct {
	ID     string `json:"id"`
	IDType string `json:"idType"`
}

type WindowsResources struct {
	Memory  *WindowsMemoryResources  `json:"memory,omitempty"`
	CPU     *WindowsCPUResources     `json:"cpu,omitempty"`
	Storage *WindowsStorageResources `json:"storage,omitempty"`
}

type WindowsMemoryResources struct {
	Limit *uint64 `json:"limit,omitempty"`
}

type WindowsCPUResources struct {
	Count   *uint64 `json:"count,omitempty"`
	Shares  *uint16 `json:"shares,omitempty"`
	Maximum *uint16 `json:"maximum,omitempty"`
}

type WindowsStorageResources struct {
	Iops        *uint64 `json:"iops,omitempty"`
	Bps         *uint64 `json:"bps,omitempty"`
	SandboxSize *uint64 `json:"sandboxSize,omitempty"`
}

type WindowsHyperV struct {
	UtilityVMPath string `json:"utilityVMPath,omitempty"`
}

type WindowsNetwork struct {
	EndpointList               []string `json:"endpointList,omitempty"`
	AllowUnqualifiedDNSQuery   *bool    `json:"allowUnqualifiedDNSQuery,omitempty"`
	DNSSearchList              []string `json:"DNSSearchList,omitempty"`
	NetworkSharedContainerName string   `json:"networkSharedContainerName,omitempty"`
	NetworkNamespace           string   `json:"networkNamespace,omitempty"`
}
