package tensorpack

type options struct {
	logger         *Logger
	bufferSize     int
	syncOnFinalize bool
	useMmap        bool
}

func defaultOptions() options {
	return options{
		logger:         NoopLogger(),
		bufferSize:     256 * 1024,
		syncOnFinalize: true,
	}
}

// Option configures Create and Open behavior.
type Option func(*options)

// WithLogger configures structured logging. The default logger discards
// all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithBufferSize sets the write buffer size in bytes for Writers. Each
// record is handed to the buffer in a single write regardless of size.
// Ignored by Open.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithSyncOnFinalize controls whether Finalize calls fsync before closing
// the file. Enabled by default; disable only for throwaway containers
// (e.g. tests) where durability does not matter.
func WithSyncOnFinalize(sync bool) Option {
	return func(o *options) {
		o.syncOnFinalize = sync
	}
}

// WithMmap makes Open back the reader with a read-only memory mapping
// instead of pread calls. Best for random access patterns with a warm
// page cache. Ignored by Create.
func WithMmap() Option {
	return func(o *options) {
		o.useMmap = true
	}
}
