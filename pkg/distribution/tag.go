package distribution

import (
	"encoding/json"

	"oci-registry-service/pkg/oci"
)

// TagList is the response of GET /v2/<name>/tags/list.
type TagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func NewTagList(name string, tags ...string) *TagList {
	if tags == nil {
		tags = []string{}
	}
	return &TagList{Name: name, Tags: tags}
}

func (l *TagList) Validate() error {
	if l.Name == "" {
		return oci.Builder("field %q is required", "name")
	}
	if l.Tags == nil {
		return oci.Builder("field %q is required", "tags")
	}
	return nil
}

func (l *TagList) UnmarshalJSON(b []byte) error {
	type alias TagList
	var v alias
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = TagList(v)
	return l.Validate()
}
