// Package grf provides reading functionality for Ragnarok Online GRF archives.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Faultbox/squaremesh/pkg/encoding"
	"github.com/Faultbox/squaremesh/pkg/formats"
)

const (
	grfMagic      = "Master of Magic"
	grfHeaderSize = 46
	grfVersion    = 0x200
	entrySize     = 17 // sizes, flags, offset after the name

	flagFile      = 0x01
	flagEncrypted = 0x02
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted files not supported")
	ErrCorruptEntry       = errors.New("corrupt file entry")
)

// Archive represents an opened GRF archive.
type Archive struct {
	r        io.ReadSeeker
	closer   io.Closer
	header   Header
	fileList map[string]*Entry
}

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Open opens a GRF archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// NewReader reads the archive index from r.
func NewReader(r io.ReadSeeker) (*Archive, error) {
	a := &Archive{
		r:        r,
		fileList: make(map[string]*Entry),
	}

	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if _, err := a.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(a.r, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != grfVersion {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	if _, err := a.r.Seek(int64(a.header.TableOffset)+grfHeaderSize, io.SeekStart); err != nil {
		return err
	}

	var sizes [2]uint32 // compressed, uncompressed
	if err := binary.Read(a.r, binary.LittleEndian, &sizes); err != nil {
		return err
	}

	compressed := make([]byte, sizes[0])
	if _, err := io.ReadFull(a.r, compressed); err != nil {
		return err
	}
	table, err := inflate(compressed, sizes[1])
	if err != nil {
		return err
	}

	fileCount := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	offset := 0
	for i := int64(0); i < fileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			break
		}
		name := string(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+entrySize > len(table) {
			break
		}

		entry := &Entry{
			Name:             normalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
			Offset:           binary.LittleEndian.Uint32(table[offset+13:]),
		}
		offset += entrySize

		if entry.Flags&flagFile != 0 {
			a.fileList[entry.Name] = entry
		}
	}

	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for p := range a.fileList {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[normalizePath(path)]
	return ok
}

// Read reads a file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if entry.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	stored := entry.CompressedSize == entry.UncompressedSize
	if entry.CompressedSize > entry.AlignedSize || (stored && entry.UncompressedSize > entry.AlignedSize) {
		return nil, fmt.Errorf("%w: %s: sizes %d/%d exceed stored %d", ErrCorruptEntry, path,
			entry.CompressedSize, entry.UncompressedSize, entry.AlignedSize)
	}

	if _, err := a.r.Seek(int64(entry.Offset)+grfHeaderSize, io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, entry.AlignedSize)
	if _, err := io.ReadFull(a.r, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if stored {
		return data[:entry.UncompressedSize], nil
	}
	return inflate(data[:entry.CompressedSize], entry.UncompressedSize)
}

// Maps returns the names of all GAT maps in the archive, without directory
// or extension, sorted. Names are decoded from EUC-KR.
func (a *Archive) Maps() []string {
	var names []string
	for _, p := range a.List() {
		if !strings.HasSuffix(p, ".gat") {
			continue
		}
		base := strings.TrimSuffix(path.Base(p), ".gat")
		names = append(names, encoding.EUCKRStringToUTF8(base))
	}
	return names
}

// ReadGAT loads and parses data/<name>.gat.
func (a *Archive) ReadGAT(name string) (*formats.GAT, error) {
	data, err := a.Read(MapPath(name))
	if err != nil {
		return nil, err
	}
	gat, err := formats.ParseGAT(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return gat, nil
}

// MapPath returns the archive path of a map's GAT file.
func MapPath(name string) string {
	return "data/" + string(encoding.UTF8ToEUCKR(name)) + ".gat"
}

func inflate(compressed []byte, size uint32) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	result := make([]byte, size)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}
	return result, nil
}

func normalizePath(path string) string {
	return encoding.NormalizeGRFPath(path)
}
