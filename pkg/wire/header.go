package wire

import "github.com/harunnryd/volcasr/pkg/errorsx"

// MessageType identifies a frame in the binary protocol.
type MessageType uint8

const (
	FullClientRequest      MessageType = 0b0001
	AudioOnlyClientRequest MessageType = 0b0010
	FullServerResponse     MessageType = 0b1001
	ServerAck              MessageType = 0b1011
	ErrorMessageFromServer MessageType = 0b1111
)

// Flags qualifies how a frame participates in the sequence stream.
// The last audio chunk of a session carries NegativeSequenceServerAssigned;
// every other client frame carries NoSequence.
type Flags uint8

const (
	NoSequence                     Flags = 0b0000
	PositiveSequenceClientAssigned Flags = 0b0001
	NegativeSequenceServerAssigned Flags = 0b0010
	NegativeSequenceClientAssigned Flags = 0b0011
)

// Serialization describes the payload encoding.
type Serialization uint8

const (
	SerializationNone   Serialization = 0b0000
	SerializationJSON   Serialization = 0b0001
	SerializationCustom Serialization = 0b1111
)

// Compression describes the payload compression container.
type Compression uint8

const (
	CompressionNone   Compression = 0b0000
	CompressionGzip   Compression = 0b0001
	CompressionCustom Compression = 0b1111
)

const (
	// ProtocolVersion is the only version this client speaks.
	ProtocolVersion uint8 = 0b0001

	// HeaderSize is the fixed header length in bytes. The wire form encodes
	// it in units of 4 bytes.
	HeaderSize = 4

	// CodeSuccess is the application-level success code in server payloads.
	CodeSuccess = 1000
)

// Header is the unpacked form of the 4-byte frame header.
type Header struct {
	Version       uint8
	Type          MessageType
	Flags         Flags
	Serialization Serialization
	Compression   Compression
}

// EncodeHeader packs the header fields into their 4-byte wire form.
// Byte 0 carries version and header size (in 4-byte units), byte 1 the
// message type and flags, byte 2 serialization and compression, byte 3 is
// reserved and always zero.
func EncodeHeader(t MessageType, f Flags, s Serialization, c Compression) [HeaderSize]byte {
	return [HeaderSize]byte{
		ProtocolVersion<<4 | HeaderSize>>2,
		uint8(t)<<4 | uint8(f),
		uint8(s)<<4 | uint8(c),
		0,
	}
}

// DecodeHeader unpacks the leading header of a frame.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, errorsx.New("frame shorter than header", errorsx.ReasonMalformedPayload)
	}
	return Header{
		Version:       b[0] >> 4,
		Type:          MessageType(b[1] >> 4),
		Flags:         Flags(b[1] & 0x0f),
		Serialization: Serialization(b[2] >> 4),
		Compression:   Compression(b[2] & 0x0f),
	}, nil
}

// headerLen reads the header length in bytes from the first header byte.
func headerLen(b0 byte) int {
	return int(b0&0x0f) << 2
}
