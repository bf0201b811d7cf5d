package gitlib

import (
	"bytes"
	"errors"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBinary is returned by CountLines if the content is binary.
var ErrBinary = errors.New("binary")

// binarySniffLength is the number of bytes scanned for NUL when detecting binary content.
const binarySniffLength = 8000

// Blob wraps a libgit2 blob.
type Blob struct {
	blob *git2go.Blob
}

// Hash returns the blob hash.
func (b *Blob) Hash() Hash {
	return HashFromOid(b.blob.Id())
}

// Size returns the blob size.
func (b *Blob) Size() int64 {
	return b.blob.Size()
}

// Contents returns the blob contents.
func (b *Blob) Contents() []byte {
	return b.blob.Contents()
}

// Free releases the blob resources.
func (b *Blob) Free() {
	if b.blob != nil {
		b.blob.Free()
		b.blob = nil
	}
}

// CountLines counts lines the way git diff does: a trailing line without a
// newline still counts. Binary content yields ErrBinary.
func CountLines(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	if IsBinary(data) {
		return 0, ErrBinary
	}

	count := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		count++
	}

	return count, nil
}

// IsBinary applies git's heuristic: a NUL byte in the first 8000 bytes.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLength {
		sniff = sniff[:binarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}
