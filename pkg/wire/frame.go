package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/harunnryd/volcasr/pkg/errorsx"
)

// Response is the JSON payload carried by server frames. Code and Sequence
// are pointers so that an absent field can be told apart from a zero value.
type Response struct {
	ReqID    string `json:"reqid,omitempty"`
	Code     *int64 `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Sequence *int64 `json:"sequence,omitempty"`
	Result   string `json:"result,omitempty"`
}

// Message is one decoded server frame.
type Message struct {
	Type      MessageType
	Sequence  int32  // leading sequence of a ServerAck frame
	ErrorCode uint32 // error code of an ErrorMessageFromServer frame
	Payload   []byte // decompressed payload bytes, may be empty
	Fields    *Response
	// Terminal reports that the server will send no further output on this
	// session: an error frame, a non-success application code, or a
	// negative sequence in the payload.
	Terminal bool
}

// EncodeFullRequest builds the first frame of a session from the marshalled
// request configuration: gzip-compressed JSON behind a big-endian length and
// a FullClientRequest header.
func EncodeFullRequest(jsonBody []byte) []byte {
	return encodeClientFrame(FullClientRequest, NoSequence, SerializationJSON, jsonBody)
}

// EncodeAudio builds an audio-only frame. Only the final chunk of a session
// may set last; it is flagged NegativeSequenceServerAssigned so the server
// knows to finalize the utterance.
func EncodeAudio(pcm []byte, last bool) []byte {
	flags := NoSequence
	if last {
		flags = NegativeSequenceServerAssigned
	}
	return encodeClientFrame(AudioOnlyClientRequest, flags, SerializationNone, pcm)
}

func encodeClientFrame(t MessageType, f Flags, s Serialization, payload []byte) []byte {
	body := Compress(payload)
	hdr := EncodeHeader(t, f, s, CompressionGzip)
	frame := make([]byte, 0, HeaderSize+4+len(body))
	frame = append(frame, hdr[:]...)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(body)))
	frame = append(frame, body...)
	return frame
}

// DecodeFrame parses a server frame. The framing has no resynchronization
// marker, so any decode failure poisons the byte offsets of everything that
// follows and must abort the session.
func DecodeFrame(b []byte) (Message, error) {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return Message{}, err
	}
	hlen := headerLen(b[0])
	if hlen < HeaderSize || len(b) < hlen {
		return Message{}, errorsx.New("frame shorter than declared header", errorsx.ReasonMalformedPayload)
	}

	msg := Message{Type: hdr.Type}
	var payloadOff, payloadLen uint32

	switch hdr.Type {
	case FullServerResponse:
		if len(b) < hlen+4 {
			return Message{}, errorsx.New("truncated response frame", errorsx.ReasonMalformedPayload)
		}
		payloadLen = binary.BigEndian.Uint32(b[hlen:])
		payloadOff = uint32(hlen) + 4
	case ServerAck:
		if len(b) < hlen+4 {
			return Message{}, errorsx.New("truncated ack frame", errorsx.ReasonMalformedPayload)
		}
		msg.Sequence = int32(binary.BigEndian.Uint32(b[hlen:]))
		// An ack with no body is valid: only read a payload when the frame
		// carries one.
		if len(b) > hlen+4 {
			if len(b) < hlen+8 {
				return Message{}, errorsx.New("truncated ack frame", errorsx.ReasonMalformedPayload)
			}
			payloadLen = binary.BigEndian.Uint32(b[hlen+4:])
			payloadOff = uint32(hlen) + 8
		}
	case ErrorMessageFromServer:
		if len(b) < hlen+8 {
			return Message{}, errorsx.New("truncated error frame", errorsx.ReasonMalformedPayload)
		}
		msg.ErrorCode = binary.BigEndian.Uint32(b[hlen:])
		payloadLen = binary.BigEndian.Uint32(b[hlen+4:])
		payloadOff = uint32(hlen) + 8
		msg.Terminal = true
	default:
		return Message{}, errorsx.Wrap(
			fmt.Errorf("unsupported message type 0b%04b", uint8(hdr.Type)),
			errorsx.ReasonUnsupportedMessageType,
		)
	}

	if payloadLen > 0 {
		if int(payloadOff)+int(payloadLen) > len(b) {
			return Message{}, errorsx.New("payload length exceeds frame", errorsx.ReasonMalformedPayload)
		}
		raw := b[payloadOff : payloadOff+payloadLen]
		if hdr.Compression == CompressionGzip {
			msg.Payload, err = Decompress(raw)
			if err != nil {
				return Message{}, err
			}
		} else {
			msg.Payload = raw
		}
	}

	if hdr.Serialization == SerializationJSON && len(msg.Payload) > 0 {
		var fields Response
		if err := json.Unmarshal(msg.Payload, &fields); err != nil {
			return Message{}, errorsx.Wrap(err, errorsx.ReasonMalformedPayload)
		}
		msg.Fields = &fields
		if fields.Code != nil && *fields.Code != CodeSuccess {
			msg.Terminal = true
		}
		if fields.Sequence != nil && *fields.Sequence < 0 {
			msg.Terminal = true
		}
	}

	return msg, nil
}
