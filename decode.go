package slotfeed

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// gzipMagic is the two-byte gzip member header (RFC 1952).
var gzipMagic = [2]byte{0x1f, 0x8b}

// Decoder turns raw slot streams into text lines. Gzip framing is detected
// from the first two bytes of each stream and removed transparently; plain
// streams pass through untouched. Bytes are decoded with the configured
// charset and split on newlines, with a final unterminated line yielded
// like any other.
//
// A Decoder holds no per-stream state and may be shared across goroutines.
type Decoder struct {
	enc     encoding.Encoding
	maxLine int
}

// NewDecoder builds a Decoder for the named charset. The name is resolved
// through the IANA registry ("utf-8", "windows-1252", ...); the empty name
// selects DefaultCharset. maxLineBytes caps the length of a single line,
// with values < 1 selecting DefaultMaxLineBytes.
func NewDecoder(charset string, maxLineBytes int) (*Decoder, error) {
	if maxLineBytes < 1 {
		maxLineBytes = DefaultMaxLineBytes
	}
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	return &Decoder{enc: enc, maxLine: maxLineBytes}, nil
}

func lookupCharset(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, DefaultCharset) {
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	if enc == nil {
		// Registered name without an available decoder.
		return nil, fmt.Errorf("charset %q: no decoder available", name)
	}
	return enc, nil
}

// Lines returns a lazy iterator over the decoded lines of r. The stream is
// read exactly once; the sequence is not restartable. Iteration ends after
// the first error, which is yielded with an empty line. A line longer than
// the decoder's limit surfaces bufio.ErrTooLong.
//
// The caller keeps ownership of r and closes it after iterating.
func (d *Decoder) Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReaderSize(r, 32*1024)

		// Sniff the gzip magic. A probe error means the stream is shorter
		// than two bytes and cannot be gzip, so it is read as-is.
		var body io.Reader = br
		if magic, err := br.Peek(2); err == nil && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
			zr, err := gzip.NewReader(br)
			if err != nil {
				yield("", fmt.Errorf("gzip header: %w", err))
				return
			}
			defer zr.Close()
			body = zr
		}

		// The scanner needs one byte of headroom to see the newline that
		// terminates a maximum-length line, and its token cap is the larger
		// of the initial buffer and max, so the initial buffer must not
		// exceed the limit either.
		limit := d.maxLine + 1
		scanner := bufio.NewScanner(transform.NewReader(body, d.enc.NewDecoder()))
		scanner.Buffer(make([]byte, min(64*1024, limit)), limit)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading lines: %w", err))
		}
	}
}
