package dabplus

// Buffer accumulates ADTS AAC frames and slices them into the 5
// Access Units of a DAB+ superframe. AAC frame boundaries do not
// align with AU boundaries (by design: DAB+ is a transport layer, AAC
// framing is decoded independently by the receiver), so the buffer
// simply treats incoming frames as a continuous byte stream.
//
// Grounded on _examples/original_source/src/dabmux/audio/aac_superframe.py
// AacSuperframeBuffer.
type Buffer struct {
	enc *SuperframeEncoder

	pending    []byte
	aus        [5][]byte
	ready      bool

	FrameCount      int
	SuperframeCount int
	Underruns       int
}

// NewBuffer creates a superframe buffer for the given subchannel
// bitrate with FEC protection always applied (spec.md requires
// RS-protected DAB+ output; there is no unprotected mode).
func NewBuffer(bitrateKbps int) *Buffer {
	return &Buffer{enc: NewSuperframeEncoder(bitrateKbps)}
}

// AddFrame appends one complete ADTS AAC frame (including its ADTS
// header) to the accumulation buffer.
func (b *Buffer) AddFrame(frame []byte) {
	b.pending = append(b.pending, frame...)
	b.FrameCount++
}

// NeedsFrames reports whether the buffer still holds fewer bytes than
// the next superframe needs, i.e. whether more frames must be added.
func (b *Buffer) NeedsFrames() bool {
	return len(b.pending) < b.enc.SuperframeSize()
}

// BuildSuperframe slices the next superframe_size bytes off the
// pending buffer, RS-protects them, and splits the result into 5
// protected AUs retrievable via AU. If fewer bytes than a full
// superframe are pending, the shortfall is zero-padded and counted as
// an underrun.
func (b *Buffer) BuildSuperframe() error {
	size := b.enc.SuperframeSize()
	data := b.pending
	if len(data) < size {
		b.Underruns++
		data = append(append([]byte{}, data...), make([]byte, size-len(data))...)
		b.pending = nil
	} else {
		b.pending = append([]byte{}, data[size:]...)
		data = data[:size]
	}

	protected, err := b.enc.Encode(data)
	if err != nil {
		return err
	}
	auSize := b.enc.ProtectedAUSize()
	for i := 0; i < 5; i++ {
		b.aus[i] = protected[i*auSize : (i+1)*auSize]
	}
	b.ready = true
	b.SuperframeCount++
	return nil
}

// AU returns the protected bytes for Access Unit index (0-4) of the
// most recently built superframe. If no superframe has been built
// yet, it returns silence of the correct size.
func (b *Buffer) AU(index int) []byte {
	if index < 0 || index >= 5 {
		panic("dabplus: AU index out of range [0,4]")
	}
	if !b.ready {
		return make([]byte, b.enc.ProtectedAUSize())
	}
	return b.aus[index]
}

// Reset clears all accumulated state and counters.
func (b *Buffer) Reset() {
	b.pending = nil
	b.aus = [5][]byte{}
	b.ready = false
	b.FrameCount = 0
	b.SuperframeCount = 0
	b.Underruns = 0
}
