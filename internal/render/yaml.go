package render

import (
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
)

// incentiveFile is the on-disk shape of an exported incentive table.
type incentiveFile struct {
	Incentives []incentive.Entry `yaml:"incentives"`
}

// ExportIncentives writes the incentive table as YAML.
func ExportIncentives(w io.Writer, table *incentive.Table) error {
	doc := incentiveFile{Incentives: table.Entries()}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "render: encode incentives")
	}
	return eris.Wrap(enc.Close(), "render: close encoder")
}

// ImportIncentives reads a YAML incentive table previously written by
// ExportIncentives.
func ImportIncentives(r io.Reader) (*incentive.Table, error) {
	var doc incentiveFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "render: decode incentives")
	}
	if len(doc.Incentives) == 0 {
		return nil, eris.New("render: incentive file has no rows")
	}
	return incentive.FromEntries(doc.Incentives), nil
}
