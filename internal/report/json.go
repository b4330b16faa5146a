package report

import (
	"encoding/json"
	"os"

	"github.com/samber/oops"
)

func WriteJSONToFile(r *Results, path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil { return oops.In("report").Wrapf(err, "encode") }
	return os.WriteFile(path, b, 0o644)
}

func ReadJSONFile(path string) (*Results, error) {
	b, err := os.ReadFile(path)
	if err != nil { return nil, err }
	var r Results
	if err := json.Unmarshal(b, &r); err != nil { return nil, oops.In("report").With("path", path).Wrapf(err, "decode") }
	return &r, nil
}

func MergeJSONFiles(paths []string) (*Results, error) {
	var out *Results
	for _, p := range paths {
		r, err := ReadJSONFile(p)
		if err != nil { return nil, err }
		if out == nil { out = r } else { out.Merge(r) }
	}
	if out == nil { return nil, oops.In("report").Errorf("no input files") }
	return out, nil
}
