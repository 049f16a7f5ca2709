package pipeline

import (
	"bytes"
	"fmt"

	pkgio "github.com/matzehuels/pointlabel/pkg/io"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// Export encodes a placement result in each requested format.
func Export(res placement.Result, cfg placement.Config, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	for _, name := range formats {
		format, err := pkgio.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := pkgio.Write(&buf, format, res, cfg); err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		artifacts[string(format)] = buf.Bytes()
	}
	return artifacts, nil
}
