package dataset

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// GroupFile is a YAML file of tag group definitions:
//
//	baseline: main
//	groups:
//	  - name: main
//	    tags: [main]
//	  - name: feature
//	    mode: all
//	    tags: [feature, linux]
type GroupFile struct {
	Baseline string            `yaml:"baseline"`
	Groups   []domain.GroupDef `yaml:"groups"`
}

// LoadGroupFile reads group definitions from path. Unknown keys are
// rejected.
func LoadGroupFile(fs afero.Fs, path string) (*GroupFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var gf GroupFile
	if err := dec.Decode(&gf); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w: %w", path, ErrMalformedDataset, err)
	}
	if len(gf.Groups) == 0 {
		return nil, fmt.Errorf("dataset: %s defines no groups: %w", path, ErrMalformedDataset)
	}
	return &gf, nil
}
