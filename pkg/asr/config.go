package asr

import (
	"time"

	"github.com/harunnryd/volcasr/pkg/auth"
)

// DefaultEndpoint is the realtime ASR path of the recognition service.
const DefaultEndpoint = "wss://openspeech.bytedance.com/api/v2/asr"

// Config is the immutable per-client configuration. AppID, Token and
// Cluster are required; SecretKey is required under signature auth.
type Config struct {
	AppID     string
	Token     string
	SecretKey string
	AuthType  auth.Type
	Cluster   string

	Endpoint string
	UID      string
	Workflow string
	Language string

	Format     string
	SampleRate int
	Bits       int
	Channels   int
	Codec      string

	Nbest          int
	ShowLanguage   bool
	ShowUtterances bool
	ResultType     string

	// ConnectTimeout bounds the synchronous connect wait.
	ConnectTimeout time.Duration
	// ChunkSize splits the utterance into multiple audio frames of this
	// many bytes. Zero sends the whole utterance as a single final chunk.
	ChunkSize int

	// InsecureSkipVerify disables certificate verification, for test
	// endpoints only.
	InsecureSkipVerify bool
}

func (c Config) withDefaults() Config {
	if c.AuthType == 0 {
		c.AuthType = auth.TypeToken
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.UID == "" {
		c.UID = "volcasr"
	}
	if c.Workflow == "" {
		c.Workflow = "audio_in,resample,partition,vad,fe,decode"
	}
	if c.Language == "" {
		c.Language = "zh-CN"
	}
	if c.Format == "" {
		c.Format = "raw"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Bits == 0 {
		c.Bits = 16
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.Codec == "" {
		c.Codec = "raw"
	}
	if c.Nbest == 0 {
		c.Nbest = 1
	}
	if c.ResultType == "" {
		c.ResultType = "full"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

func (c Config) ready() bool {
	if c.AppID == "" || c.Token == "" || c.Cluster == "" {
		return false
	}
	if c.AuthType == auth.TypeSignature && c.SecretKey == "" {
		return false
	}
	return true
}
