package music

// scales maps a scale name to semitone offsets from the root. Unknown names
// fall back to pentatonic_minor.
var scales = map[string][]int{
	"pentatonic_minor": {0, 3, 5, 7, 10},
	"natural_minor":    {0, 2, 3, 5, 7, 8, 10},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
}

func scaleFor(name string) []int {
	if s, ok := scales[name]; ok {
		return s
	}
	return scales["pentatonic_minor"]
}

// note resolves a scale degree and octave offset to a clamped MIDI number.
func note(keyMidi int, scale []int, degree, octave int) int {
	k := len(scale)
	offset := scale[((degree%k)+k)%k]
	return clampInt(keyMidi+offset+octave*12, 0, 127)
}
