package endpoint

// Writer is handed to a Source/Function by the engine each call; it writes
// into the buffer the engine actually owns, so callback objects never hold
// a back-pointer to the engine.
type Writer interface {
	Write(p []byte)
}

// Source is a pollable input producer. Poll returns true when more data
// will follow (the engine keeps polling it as the ring buffer drains);
// false means the source is exhausted.
type Source interface {
	Poll(w Writer) bool
}

// Sink receives output bytes as they arrive and is notified exactly once
// when the output stream ends.
type Sink interface {
	Process(data []byte)
	EOF()
}

// InputKind discriminates the input endpoint variants.
type InputKind int

const (
	InputNone InputKind = iota
	InputFd
	InputFile
	InputBytes
	InputCallback
)

// OutputKind discriminates the output endpoint variants.
type OutputKind int

const (
	OutputNone OutputKind = iota
	OutputFd
	OutputFile
	OutputBytes
	OutputCallback
)

const DefaultFileMode = 0o666

// Input is the set-once input endpoint configuration.
type Input struct {
	kind InputKind
	set  bool

	fd         int
	path       string
	compressed bool

	bytes  []byte
	cursor int

	source Source
}

// NewInput returns an unconfigured (InputNone) input endpoint.
func NewInput() *Input { return &Input{kind: InputNone} }

func (in *Input) assertUnset() {
	if in.set {
		panic("endpoint: input already configured")
	}
	in.set = true
}

// SetFd hands fd directly to the first stage as stdin; the engine neither
// reads nor writes it.
func (in *Input) SetFd(fd int) {
	in.assertUnset()
	in.kind = InputFd
	in.fd = fd
}

// SetFile opens path read-only, engine-side.
func (in *Input) SetFile(path string) {
	in.assertUnset()
	in.kind = InputFile
	in.path = path
}

// SetCompressedFile is SetFile with the opened descriptor wrapped in a
// streaming gzip reader before bytes reach the first stage.
func (in *Input) SetCompressedFile(path string) {
	in.assertUnset()
	in.kind = InputFile
	in.path = path
	in.compressed = true
}

// SetBytes borrows seq, writing it into the first stage and closing the
// input fd once the cursor reaches the end. The caller must keep seq alive
// for the duration of run().
func (in *Input) SetBytes(seq []byte) {
	in.assertUnset()
	in.kind = InputBytes
	in.bytes = seq
}

// SetCallback registers src, polled for more data whenever the engine wants
// to deliver input and the ring buffer has drained.
func (in *Input) SetCallback(src Source) {
	in.assertUnset()
	in.kind = InputCallback
	in.source = src
}

func (in *Input) Kind() InputKind    { return in.kind }
func (in *Input) Fd() int            { return in.fd }
func (in *Input) Path() string       { return in.path }
func (in *Input) Compressed() bool   { return in.compressed }
func (in *Input) Source() Source     { return in.source }

// BytesTail returns the unread suffix of the configured byte sequence.
func (in *Input) BytesTail() []byte { return in.bytes[in.cursor:] }

// AdvanceBytes advances the byte-sequence cursor by n.
func (in *Input) AdvanceBytes(n int) { in.cursor += n }

// BytesExhausted reports whether the byte sequence has been fully delivered.
func (in *Input) BytesExhausted() bool { return in.cursor >= len(in.bytes) }

// Output is the set-once output endpoint configuration.
type Output struct {
	kind OutputKind
	set  bool

	fd         int
	path       string
	mode       uint32
	compressed bool

	dst  *[]byte
	sink Sink
}

// NewOutput returns an unconfigured (OutputNone) output endpoint.
func NewOutput() *Output { return &Output{kind: OutputNone, mode: DefaultFileMode} }

func (out *Output) assertUnset() {
	if out.set {
		panic("endpoint: output already configured")
	}
	out.set = true
}

// SetFd hands fd directly to the last stage as stdout.
func (out *Output) SetFd(fd int) {
	out.assertUnset()
	out.kind = OutputFd
	out.fd = fd
}

// SetFile opens path write-only, creating and truncating it with mode.
func (out *Output) SetFile(path string, mode uint32) {
	out.assertUnset()
	out.kind = OutputFile
	out.path = path
	out.mode = mode
}

// SetCompressedFile is SetFile with a streaming gzip writer interposed
// between the engine's output reads and the opened descriptor.
func (out *Output) SetCompressedFile(path string, mode uint32) {
	out.assertUnset()
	out.kind = OutputFile
	out.path = path
	out.mode = mode
	out.compressed = true
}

// SetBytes appends every chunk read from the output fd to dst.
func (out *Output) SetBytes(dst *[]byte) {
	out.assertUnset()
	out.kind = OutputBytes
	out.dst = dst
}

// SetCallback registers sink, notified as output arrives and once on EOF.
func (out *Output) SetCallback(sink Sink) {
	out.assertUnset()
	out.kind = OutputCallback
	out.sink = sink
}

func (out *Output) Kind() OutputKind  { return out.kind }
func (out *Output) Fd() int           { return out.fd }
func (out *Output) Path() string      { return out.path }
func (out *Output) Mode() uint32      { return out.mode }
func (out *Output) Compressed() bool  { return out.compressed }
func (out *Output) Sink() Sink        { return out.sink }

// AppendBytes appends p to the configured destination slice.
func (out *Output) AppendBytes(p []byte) { *out.dst = append(*out.dst, p...) }
