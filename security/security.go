// Package security holds the encryption hook the writer calls for every
// string and stream it emits. Only the pass-through handler is provided.
package security

import "github.com/wudi/pdfflow/ir/raw"

// DataClass identifies the kind of payload being encrypted.
type DataClass int

const (
	DataClassStream DataClass = iota
	DataClassString
	DataClassMetadataStream
)

// Handler encrypts object data on its way to the file.
type Handler interface {
	IsEncrypted() bool
	Encrypt(objNum, gen int, data []byte, class DataClass) ([]byte, error)
	// EncryptDict returns the /Encrypt dictionary for the trailer, nil when
	// the file is not encrypted.
	EncryptDict(fileID []byte) *raw.DictObj
}

// NoEncryption writes data unchanged.
type NoEncryption struct{}

func (NoEncryption) IsEncrypted() bool { return false }

func (NoEncryption) Encrypt(_, _ int, data []byte, _ DataClass) ([]byte, error) {
	return data, nil
}

func (NoEncryption) EncryptDict([]byte) *raw.DictObj { return nil }
