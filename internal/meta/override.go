package meta

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with an override
// block delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("override block start delimiter found but closing delimiter is missing")

// ParseOverride splits an optional leading `---` annotation block from the
// body. Absence of the block is the common case: the input is returned
// unchanged with a zero Override. Only the layout and tags keys are read;
// unknown keys are ignored.
func ParseOverride(raw []byte) (Override, string, error) {
	content := string(raw)

	const delim = "---\n"
	if !strings.HasPrefix(content, delim) {
		return Override{}, content, nil
	}

	rest := content[len(delim):]
	var block, body string
	switch {
	case strings.HasPrefix(rest, "---\n"):
		block, body = "", rest[len("---\n"):]
	default:
		idx := strings.Index(rest, "\n---\n")
		if idx < 0 {
			return Override{}, content, ErrMissingClosingDelimiter
		}
		block, body = rest[:idx+1], rest[idx+len("\n---\n"):]
	}

	var fields struct {
		Layout string    `yaml:"layout"`
		Tags   yaml.Node `yaml:"tags"`
	}
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		return Override{}, content, err
	}

	override := Override{Layout: fields.Layout}
	if fields.Tags.Kind == yaml.SequenceNode {
		if err := fields.Tags.Decode(&override.Tags); err != nil {
			return Override{}, content, err
		}
	}
	return override, body, nil
}
