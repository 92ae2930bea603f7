package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Serialize writes typed Metadata as YAML bytes (without delimiters).
//
// Determinism: keys are sorted so output is stable across runs. Newlines use
// the style provided (defaults to \n). Empty metadata yields an empty slice.
//
// Parsing the result with DecodeYAML returns metadata semantically equal to
// the input: dates are emitted in timestamp form, lists as sequences, bools
// and strings with their natural tags.
func Serialize(meta Metadata, style Style) ([]byte, error) {
	if len(meta) == 0 {
		return []byte{}, nil
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range meta.Keys() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		node.Content = append(node.Content, keyNode, nodeFromValue(meta[k]))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

func nodeFromValue(v Value) *yaml.Node {
	switch v.Kind {
	case KindBool:
		val := "false"
		if v.Bool {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}
	case KindDate:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: formatDate(v.Time)}
	case KindList:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.List {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
		}
		return seq
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	}
}
