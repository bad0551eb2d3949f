// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	m "github.com/mkhts/sp3"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Read an SP3 file, plain or gzip compressed
func readSP3(fn string) (*m.SP3, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := decompress(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return m.Parse(r)
}

// Wrap r with a gzip reader when the stream starts with the gzip magic
func decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.Equal(head, gzipMagic) {
		return io.NopCloser(br), nil
	}
	return gzip.NewReader(br)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Output closes the gzip stream before the file
type gzipFile struct {
	*gzip.Writer
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Writer.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Prepare output file
func createOutput(fn string) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(fn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	f, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(fn, ".gz") {
		return &gzipFile{Writer: gzip.NewWriter(f), f: f}, nil
	}
	return f, nil
}
