package sampler

// Common render sample rates.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000
)

// Common block sizes in frames.
const (
	// BlockLowLatency is a 128-frame block (~2.9 ms at 44.1 kHz).
	BlockLowLatency = 128

	// BlockDefault is a 512-frame block (~11.6 ms at 44.1 kHz).
	BlockDefault = 512
)

const (
	// defaultVoices is the polyphony used by the convenience constructors.
	defaultVoices = 32

	// stereoChannels is the stereo output channel count.
	stereoChannels = 2
)

// NewCDQuality creates a stereo sampler at the CD sample rate with
// 32 voices of polyphony.
func NewCDQuality() (*Sampler, error) {
	return New(&Config{
		SampleRate: RateCD,
		Channels:   stereoChannels,
		MaxVoices:  defaultVoices,
	})
}

// NewLowLatency creates a stereo sampler at 48 kHz with a small event
// queue, suited to low-latency callback sizes.
func NewLowLatency() (*Sampler, error) {
	return New(&Config{
		SampleRate:     RateDAT,
		Channels:       stereoChannels,
		MaxVoices:      defaultVoices,
		EventQueueSize: BlockLowLatency,
	})
}

// NewMono creates a mono sampler, useful for tests and offline
// rendering.
func NewMono(sampleRate, maxVoices int) (*Sampler, error) {
	return New(&Config{
		SampleRate: sampleRate,
		Channels:   1,
		MaxVoices:  maxVoices,
	})
}
