package runtime

import "oci-registry-service/pkg/oci"

// Hooks are commands run at particular points in the container lifecycle.
type Hooks struct {
	// Prestart is deprecated in favor of CreateRuntime.
	Prestart        []Hook `json:"prestart,omitempty"`
	CreateRuntime   []Hook `json:"createRuntime,omitempty"`
	CreateContainer []Hook `json:"createContainer,omitempty"`
	StartContainer  []Hook `json:"startContainer,omitempty"`
	Poststart       []Hook `json:"poststart,omitempty"`
	Poststop        []Hook `json:"poststop,omitempty"`
}

// Hook is a single command executed by the runtime.
type Hook struct {
	Path    string   `json:"path"`
	Args    []string `json:"args,omitempty"`
	Env     []string `json:"env,omitempty"`
	Timeout *int     `json:"timeout,omitempty"`
}

func (h *Hooks) Validate() error {
	stages := []struct {
		name  string
		hooks []Hook
	}{
		{"prestart", h.Prestart},
		{"createRuntime", h.CreateRuntime},
		{"createContainer", h.CreateContainer},
		{"startContainer", h.StartContainer},
		{"poststart", h.Poststart},
		{"poststop", h.Poststop},
	}
	for _, stage := range stages {
		for i, hook := range stage.hooks {
			if !isAbs(hook.Path) {
				return oci.Builder("hooks.%s[%d]: path %q must be absolute", stage.name, i, hook.Path)
			}
			if hook.Timeout != nil && *hook.Timeout <= 0 {
				return oci.Builder("hooks.%s[%d]: timeout must be greater than zero", stage.name, i)
			}
		}
	}
	return nil
}
