package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// File is an archive member for Write.
type File struct {
	Name string
	Data []byte
}

// Write packs files into a version 0x200 archive. Files are
// zlib-compressed; names are stored as given, so EUC-KR names must already
// be encoded.
func Write(w io.Writer, files []File) error {
	body := new(bytes.Buffer)
	table := new(bytes.Buffer)

	for _, f := range files {
		packed, err := compress(f.Data)
		if err != nil {
			return err
		}
		if len(packed) == len(f.Data) {
			// equal sizes mark a stored entry
			packed = f.Data
		}
		offset := uint32(body.Len())
		body.Write(packed)

		table.WriteString(f.Name)
		table.WriteByte(0)
		var rec [entrySize]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(packed)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(len(packed)))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = flagFile
		binary.LittleEndian.PutUint32(rec[13:], offset)
		table.Write(rec[:])
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files) + 7),
		Version:     grfVersion,
	}
	copy(header.Magic[:], grfMagic)

	packedTable, err := compress(table.Bytes())
	if err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	sizes := [2]uint32{uint32(len(packedTable)), uint32(table.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return err
	}
	_, err = w.Write(packedTable)
	return err
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
