package runtime

import (
	"encoding/json"
	"fmt"
)

// ContainerState is the lifecycle status reported by a runtime.
type ContainerState string

const (
	StateCreating ContainerState = "creating"
	StateCreated  ContainerState = "created"
	StateRunning  ContainerState = "running"
	StatePaused   ContainerState = "paused"
	StateStopped  ContainerState = "stopped"
	StateUnknown  ContainerState = "unknown"
)

func (s ContainerState) String() string {
	if s == "" {
		return string(StateUnknown)
	}
	return string(s)
}

func (s ContainerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ContainerState) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch ContainerState(v) {
	case StateCreating, StateCreated, StateRunning, StatePaused, StateStopped, StateUnknown:
		*s = ContainerState(v)
	default:
		return fmt.Errorf("unknown container state %q", v)
	}
	return nil
}

// State is the output of the runtime "state" operation.
type State struct {
	Version     string            `json:"ociVersion"`
	ID          string            `json:"id"`
	Status      ContainerState    `json:"status"`
	Pid         *int              `json:"pid,omitempty"`
	Bundle      string            `json:"bundle"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// SeccompFdName is the fds entry naming the seccomp notify descriptor.
const SeccompFdName = "seccompFd"

// ContainerProcessState is sent to a seccomp agent over the listener socket.
type ContainerProcessState struct {
	Version  string   `json:"ociVersion"`
	Fds      []string `json:"fds"`
	Pid      int      `json:"pid"`
	Metadata string   `json:"metadata,omitempty"`
	State    State    `json:"state"`
}
