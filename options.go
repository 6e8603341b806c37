package transcode

import (
	"go.uber.org/zap"

	"github.com/branched-services/go-ink-transcode/scale"
	"github.com/branched-services/go-ink-transcode/value"
)

// DefaultMaxDepth bounds how deeply encode and decode recurse into nested types.
const DefaultMaxDepth = 128

// TypeCodec overrides encoding and decoding for every type with a given path.
type TypeCodec interface {
	Encode(w *scale.Writer, v value.Value) error
	Decode(r *scale.Reader) (value.Value, error)
}

// Option configures an Encoder, Decoder or Transcoder.
type Option func(*config)

// config holds the settings shared by the encoder, decoder and façade.
type config struct {
	logger        *zap.Logger
	maxDepth      int
	lenientFields bool
	custom        map[string]TypeCodec
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxDepth,
		custom:   make(map[string]TypeCodec),
	}
}

func newConfig(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithMaxDepth sets the recursion limit for nested types.
// Values below 1 keep the default of DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLenientFields makes the encoder skip map fields the composite type
// does not declare instead of failing with ErrUnexpectedField.
func WithLenientFields() Option {
	return func(c *config) {
		c.lenientFields = true
	}
}

// WithCustomType registers a codec for all types whose path, joined with
// "::", equals path. Custom codecs take precedence over the type definition.
func WithCustomType(path string, codec TypeCodec) Option {
	return func(c *config) {
		c.custom[path] = codec
	}
}
