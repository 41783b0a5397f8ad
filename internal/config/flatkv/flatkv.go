// Package flatkv implements a koanf.Parser for the "key=value;" parameter
// file format the routing tool was originally configured with: one
// setting per line, no sections, no quoting, an optional trailing ';'
// before the newline.
package flatkv

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Parser reads and writes the flat key=value; format.
type Parser struct{}

// New returns a flatkv Parser.
func New() *Parser {
	return &Parser{}
}

// Unmarshal parses b into a flat string-keyed map. Blank lines are
// skipped. A line with no '=' is rejected rather than silently ignored,
// since a malformed parameter file should fail loudly instead of
// quietly dropping a setting.
func (p *Parser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("flatkv: line %d has no '=': %q", i+1, line)
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		value = strings.TrimSuffix(value, ";")
		out[key] = value
	}
	return out, nil
}

// Marshal renders a flat map back into key=value; lines, sorted by key
// for deterministic output.
func (p *Parser) Marshal(m map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%v;\n", k, m[k])
	}
	return buf.Bytes(), nil
}
