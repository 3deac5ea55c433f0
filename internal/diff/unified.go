package diff

import (
	"bytes"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
)

// Unified renders the change of a single file as a git-style unified patch.
// A nil original means the file is new; a nil modified means it was deleted.
// Identical contents produce an empty string.
func Unified(name string, original, modified *string, contextLines int) (string, error) {
	if original == nil && modified == nil {
		return "", nil
	}
	if original != nil && modified != nil && *original == *modified {
		return "", nil
	}
	if contextLines < 0 {
		contextLines = fdiff.DefaultContextLines
	}

	fp := &filePatch{}
	switch {
	case original == nil:
		fp.to = newBlob(name, *modified)
		fp.chunks = appendChunk(nil, fdiff.Add, *modified)
	case modified == nil:
		fp.from = newBlob(name, *original)
		fp.chunks = appendChunk(nil, fdiff.Delete, *original)
	default:
		fp.from = newBlob(name, *original)
		fp.to = newBlob(name, *modified)
		fp.chunks = chunks(Lines(*original, *modified))
	}

	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, contextLines)
	if err := enc.Encode(&patch{files: []fdiff.FilePatch{fp}}); err != nil {
		return "", fmt.Errorf("encode patch for %s: %w", name, err)
	}
	return buf.String(), nil
}

// chunks turns an edit script into encoder chunks. Every line but the last
// on its side gets its newline back, so an equal line that is final on only
// one side is emitted as a delete/add pair.
func chunks(lines []Line) []fdiff.Chunk {
	lastOld, lastNew := 0, 0
	for _, l := range lines {
		lastOld = max(lastOld, l.OldNumber)
		lastNew = max(lastNew, l.NewNumber)
	}
	eol := func(content string, last bool) string {
		if last {
			return content
		}
		return content + "\n"
	}

	var out []fdiff.Chunk
	for _, l := range lines {
		switch l.Kind {
		case Equal:
			oldText := eol(l.Content, l.OldNumber == lastOld)
			newText := eol(l.Content, l.NewNumber == lastNew)
			if oldText == newText {
				out = appendChunk(out, fdiff.Equal, oldText)
				continue
			}
			out = appendChunk(out, fdiff.Delete, oldText)
			out = appendChunk(out, fdiff.Add, newText)
		case Delete:
			out = appendChunk(out, fdiff.Delete, eol(l.Content, l.OldNumber == lastOld))
		case Insert:
			out = appendChunk(out, fdiff.Add, eol(l.Content, l.NewNumber == lastNew))
		}
	}
	return out
}

func appendChunk(cs []fdiff.Chunk, op fdiff.Operation, text string) []fdiff.Chunk {
	if text == "" {
		return cs
	}
	if n := len(cs); n > 0 {
		if c := cs[n-1].(*chunk); c.op == op {
			c.content += text
			return cs
		}
	}
	return append(cs, &chunk{op: op, content: text})
}

type patch struct {
	files []fdiff.FilePatch
}

func (p *patch) FilePatches() []fdiff.FilePatch { return p.files }
func (p *patch) Message() string { return "" }

type filePatch struct {
	from, to *blob
	chunks   []fdiff.Chunk
}

func (f *filePatch) IsBinary() bool { return false }

func (f *filePatch) Files() (fdiff.File, fdiff.File) {
	// typed nils must not leak into the interface values
	var from, to fdiff.File
	if f.from != nil {
		from = f.from
	}
	if f.to != nil {
		to = f.to
	}
	return from, to
}

func (f *filePatch) Chunks() []fdiff.Chunk { return f.chunks }

type blob struct {
	path string
	hash plumbing.Hash
}

func newBlob(path, content string) *blob {
	return &blob{path: path, hash: plumbing.ComputeHash(plumbing.BlobObject, []byte(content))}
}

func (b *blob) Hash() plumbing.Hash { return b.hash }
func (b *blob) Mode() filemode.FileMode { return filemode.Regular }
func (b *blob) Path() string { return b.path }

type chunk struct {
	op      fdiff.Operation
	content string
}

func (c *chunk) Content() string { return c.content }
func (c *chunk) Type() fdiff.Operation { return c.op }
