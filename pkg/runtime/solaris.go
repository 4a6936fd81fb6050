package runtime

// Solaris contains platform-specific configuration for Solaris zones.
type Solaris struct {
	Milestone    string               `json:"milestone,omitempty"`
	LimitPriv    string               `json:"limitpriv,omitempty"`
	MaxShmMemory string               `json:"maxShmMemory,omitempty"`
	Anet         []SolarisAnet        `json:"anet,omitempty"`
	CappedCPU    *SolarisCappedCPU    `json:"cappedCPU,omitempty"`
	CappedMemory *SolarisCappedMemory `json:"cappedMemory,omitempty"`
}

type SolarisCappedCPU struct {
	Ncpus string `json:"ncpus,omitempty"`
}

type SolarisCappedMemory struct {
	Physical string `json:"physical,omitempty"`
	Swap     string `json:"swap,omitempty"`
}

// SolarisAnet describes an automatic network interface of the zone.
type SolarisAnet struct {
	Linkname                string `json:"linkname,omitempty"`
	LowerLink               string `json:"lowerLink,omitempty"`
	AllowedAddress          string `json:"allowedAddress,omitempty"`
	ConfigureAllowedAddress string `json:"configureAllowedAddress,omitempty"`
	Defrouter               string `json:"defrouter,omitempty"`
	LinkProtection          string `json:"linkProtection,omitempty"`
	MacAddress              string `json:"macAddress,omitempty"`
}
