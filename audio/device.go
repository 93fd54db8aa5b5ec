package audio

// DefaultWindow is the number of samples each volume reading covers.
const DefaultWindow = 256

// Device is a capture backend. Samples copies the most recent samples into
// dst and returns how many were written.
type Device interface {
	Name() string
	Open() error
	Close() error
	Samples(dst []float32) int
}

// Opener constructs a device. It is called at most once per initialisation.
type Opener func() (Device, error)

// PacketSink is a device fed encoded packets from a transport rather than a
// local microphone.
type PacketSink interface {
	Push(packet []byte) error
}
