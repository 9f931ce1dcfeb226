package audio

// delayLine is a stereo delay with a 2s max ring.
type delayLine struct {
	bufL, bufR []float64
	idx        int
	delaySamp  int
	feedback   float64
}

func newDelayLine(sr float64, delayS, feedback float64) *delayLine {
	if feedback < 0 {
		feedback = 0
	}
	if feedback > 0.95 {
		feedback = 0.95
	}
	maxSamp := int(sr * 2)
	delaySamp := int(delayS * sr)
	if delaySamp < 1 {
		delaySamp = 1
	}
	if delaySamp > maxSamp-1 {
		delaySamp = maxSamp - 1
	}
	return &delayLine{
		bufL:      make([]float64, maxSamp),
		bufR:      make([]float64, maxSamp),
		delaySamp: delaySamp,
		feedback:  feedback,
	}
}

// process replaces l, r with the delayed-only signal; the caller mixes
// dry/wet separately.
func (d *delayLine) process(l, r float64) (float64, float64) {
	n := len(d.bufL)
	read := (d.idx + n - d.delaySamp) % n
	dl := d.bufL[read]
	dr := d.bufR[read]
	d.bufL[d.idx] = l + dl*d.feedback
	d.bufR[d.idx] = r + dr*d.feedback
	d.idx = (d.idx + 1) % n
	return dl, dr
}

type comb struct {
	buf         []float64
	idx         int
	feedback    float64
	damp1       float64
	damp2       float64
	filterstore float64
}

func newComb(size int, feedback, damp1, damp2 float64) *comb {
	return &comb{buf: make([]float64, size), feedback: feedback, damp1: damp1, damp2: damp2}
}

func (c *comb) process(input float64) float64 {
	output := c.buf[c.idx]
	c.filterstore = output*c.damp2 + c.filterstore*c.damp1
	c.buf[c.idx] = input + c.filterstore*c.feedback
	c.idx++
	if c.idx >= len(c.buf) {
		c.idx = 0
	}
	return output
}

type allpass struct {
	buf      []float64
	idx      int
	feedback float64
}

func newAllpass(size int, feedback float64) *allpass {
	return &allpass{buf: make([]float64, size), feedback: feedback}
}

func (a *allpass) process(input float64) float64 {
	bufout := a.buf[a.idx]
	output := -input + bufout
	a.buf[a.idx] = input + bufout*a.feedback
	a.idx++
	if a.idx >= len(a.buf) {
		a.idx = 0
	}
	return output
}

// reverb is a Freeverb-style topology: four parallel combs per channel feed
// two series allpasses.
type reverb struct {
	combsL, combsR     [4]*comb
	allpassL, allpassR [2]*allpass
}

func scaleSize(v, scale float64) int {
	n := int(v*scale + 0.5)
	if n < 16 {
		n = 16
	}
	return n
}

func newReverb(sr float64) *reverb {
	scale := sr / 44100
	combSizesL := [4]float64{1116, 1188, 1277, 1356}
	combSizesR := [4]float64{1139, 1211, 1300, 1379} // +23 each, matching the reference offset
	apSizesL := [2]float64{556, 441}
	apSizesR := [2]float64{579, 464}

	rv := &reverb{}
	for i := 0; i < 4; i++ {
		rv.combsL[i] = newComb(scaleSize(combSizesL[i], scale), 0.78, 0.22, 1-0.22)
		rv.combsR[i] = newComb(scaleSize(combSizesR[i], scale), 0.78, 0.22, 1-0.22)
	}
	for i := 0; i < 2; i++ {
		rv.allpassL[i] = newAllpass(scaleSize(apSizesL[i], scale), 0.5)
		rv.allpassR[i] = newAllpass(scaleSize(apSizesR[i], scale), 0.5)
	}
	return rv
}

// process replaces l, r with the reverberated-only signal.
func (rv *reverb) process(l, r float64) (float64, float64) {
	var accL, accR float64
	for i := 0; i < 4; i++ {
		accL += rv.combsL[i].process(l)
		accR += rv.combsR[i].process(r)
	}
	accL *= 0.25
	accR *= 0.25

	for i := 0; i < 2; i++ {
		accL = rv.allpassL[i].process(accL)
		accR = rv.allpassR[i].process(accR)
	}
	return accL, accR
}
