package ambimix

// Kind is the category of an output device
type Kind int

const (
	// KindNone is an unknown or unregistered device
	KindNone = Kind(iota)
	// KindSoundCard plays through the system's audio output
	KindSoundCard
	// KindNull discards everything it is handed
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindSoundCard:
		return "soundcard"
	case KindNull:
		return "null"
	default:
		return "none"
	}
}
