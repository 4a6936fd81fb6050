package runtime

import (
	"encoding/json"

	"oci-registry-service/pkg/oci"
)

// parseEnum matches s against the known values of a string enum.
func parseEnum[T ~string](kind, s string, known []T) (T, error) {
	for _, k := range known {
		if string(k) == s {
			return k, nil
		}
	}
	var zero T
	return zero, oci.Other("unknown %s %q", kind, s)
}

func unmarshalEnum[T ~string](b []byte, kind string, known []T, out *T) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parseEnum(kind, s, known)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

// parseKeyed is parseEnum for enums that carry a numeric value.
func parseKeyed[T ~string](kind, s string, known map[T]uint32) (T, error) {
	if _, ok := known[T(s)]; ok {
		return T(s), nil
	}
	var zero T
	return zero, oci.Other("unknown %s %q", kind, s)
}

func unmarshalKeyed[T ~string](b []byte, kind string, known map[T]uint32, out *T) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parseKeyed(kind, s, known)
	if err != nil {
		return err
	}
	*out = v
	return nil
}
