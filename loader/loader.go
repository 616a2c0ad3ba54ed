// Package loader reads a CPython 2.7 .pyc image (an 8-byte header
// followed by a marshaled code object) and turns it into a Module
// value the vm package can run.
package loader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// Magic27 is the CPython 2.7 .pyc magic number (low 16 bits of the
// magic word; the high bits are the traditional '\r\n' sentinel).
const Magic27 uint32 = 0xf303

// Header is the 8-byte .pyc preamble: a magic word identifying the
// bytecode version and the embedded source mtime used for staleness
// checks by a real CPython import system (this interpreter does not
// recompile, so Mtime is diagnostic only).
type Header struct {
	Magic uint32
	Mtime uint32
}

// ParseHeader reads and validates the 8-byte .pyc header.
func ParseHeader(r io.Reader) (Header, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, perr.Deserialize("truncated .pyc header: %v", err)
	}
	magic := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	mtime := uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16 | uint32(buf[7])<<24
	if magic&0xffff != Magic27 {
		return Header{}, perr.Deserialize("unrecognized .pyc magic number 0x%08x (expected CPython 2.7)", magic)
	}
	return Header{Magic: magic, Mtime: mtime}, nil
}

// MtimeString renders a header's embedded source mtime for diagnostics
// (e.g. `pyvm info`), as "YYYY-MM-DD HH:MM:SS UTC".
func (h Header) MtimeString() string {
	t := time.Unix(int64(h.Mtime), 0).UTC()
	return strftime.Format("%Y-%m-%d %H:%M:%S UTC", t)
}

// ImportResult is a successfully decoded module: its top-level code
// object and the name it should be registered under.
type ImportResult struct {
	Name     string
	Filename string
	Header   Header
	Code     *values.Code
}

// ImportPycBuffer decodes an in-memory .pyc image. name is used as the
// module's registered name (typically the file's basename without
// extension). hasHeader is false for raw marshal dumps that were
// produced without the 8-byte preamble.
func ImportPycBuffer(name string, buf []byte, hasHeader bool) (*ImportResult, error) {
	return ImportPycStream(name, "<bytes>", bytes.NewReader(buf), hasHeader)
}

// ImportPycFile decodes a .pyc file from disk.
func ImportPycFile(path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ImportPycStream(name, path, f, true)
}

// ImportPycStream decodes a .pyc image from any reader: an optional
// 8-byte header then one marshaled TYPE_CODE object.
func ImportPycStream(name, filename string, r io.Reader, hasHeader bool) (*ImportResult, error) {
	var hdr Header
	if hasHeader {
		var err error
		hdr, err = ParseHeader(r)
		if err != nil {
			return nil, err
		}
	}
	mr := newMarshalReader(r)
	v, err := mr.readValue()
	if err != nil {
		return nil, perr.Deserialize("decoding marshaled code object: %v", err)
	}
	if v == nil || v.Type != values.TypeCode {
		return nil, perr.Deserialize(".pyc body is not a code object")
	}
	code := v.Data.(*values.Code)
	if code.Filename == "" {
		code.Filename = filename
	}
	return &ImportResult{Name: name, Filename: filename, Header: hdr, Code: code}, nil
}
