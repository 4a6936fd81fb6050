package distribution

import (
	"encoding/json"

	"oci-registry-service/pkg/oci"
)

// RepositoryList is the response of GET /v2/_catalog.
type RepositoryList struct {
	Repositories []string `json:"repositories"`
}

func NewRepositoryList(repositories ...string) *RepositoryList {
	if repositories == nil {
		repositories = []string{}
	}
	return &RepositoryList{Repositories: repositories}
}

func (l *RepositoryList) Validate() error {
	if l.Repositories == nil {
		return oci.Builder("field %q is required", "repositories")
	}
	return nil
}

func (l *RepositoryList) UnmarshalJSON(b []byte) error {
	type alias RepositoryList
	var v alias
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = RepositoryList(v)
	return l.Validate()
}
