// Package frontmatter splits content files into a YAML front matter block and
// a body, and decodes the block into schema-checked typed metadata.
package frontmatter

import (
	"bytes"
	"errors"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a front matter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates YAML front matter (`---` delimited) from the body.
//
// If the document does not start with a front matter delimiter, present is
// false and body is the full input. That is not an error: a file without
// front matter is simply metadata-free.
func Split(content []byte) (raw []byte, body []byte, present bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	rawStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[rawStart:], closeLine) {
		bodyStart := rawStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[rawStart:], closeSeq)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	rawEnd := rawStart + idx + len(nl)
	bodyStart := rawStart + idx + len(closeSeq)
	return content[rawStart:rawEnd], content[bodyStart:], true, style, nil
}

// Parse splits content and decodes the front matter block into typed Metadata.
//
// Files without an opening delimiter yield empty Metadata and the full input
// as body. A missing closing delimiter or a block that fails schema decoding
// is an error; the caller decides whether to skip the file or abort.
func Parse(content []byte) (meta Metadata, body []byte, present bool, style Style, err error) {
	raw, body, present, style, err := Split(content)
	if err != nil {
		return nil, nil, present, style, err
	}
	if !present {
		return Metadata{}, body, false, style, nil
	}

	meta, err = DecodeYAML(raw)
	if err != nil {
		return nil, nil, true, style, err
	}
	return meta, body, true, style, nil
}

// Join reassembles a document from raw front matter and body.
//
// If present is false, Join returns body as-is. Otherwise it emits the block
// with `---` delimiters using the newline style captured in Style.
func Join(raw []byte, body []byte, present bool, style Style) []byte {
	if !present {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	open := []byte("---" + nl)
	closing := []byte("---" + nl)

	out := make([]byte, 0, len(open)+len(raw)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, raw...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
