package pipeline

// BytesPerFrame is the size of one interleaved stereo int16 sample frame.
const BytesPerFrame = 4

// PcmFrame is one chunk of interleaved stereo int16 little-endian audio. It is
// never modified after it is enqueued.
type PcmFrame struct {
	Seq     uint64 // position of the chunk within its track, starting at 0
	Data    []byte
	Samples int // int16 values in Data; below the nominal size only for a track's last chunk
}

// ItemKind tags a queue element.
type ItemKind int

const (
	KindFrame ItemKind = iota
	KindShutdown
)

func (k ItemKind) String() string {
	switch k {
	case KindFrame:
		return "frame"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Item is the hand-off queue element: either a frame or a shutdown sentinel.
type Item struct {
	Kind  ItemKind
	Frame *PcmFrame
}

// FrameItem wraps a frame.
func FrameItem(f *PcmFrame) Item {
	return Item{Kind: KindFrame, Frame: f}
}

// ShutdownItem is the sentinel that tells exactly one worker to exit.
func ShutdownItem() Item {
	return Item{Kind: KindShutdown}
}
