package asm

// image.go turns the sparse address->byte map produced by Pass 2 into a
// flat, zero-padded byte slice, grounded on the teacher's segment/export
// output assembly in asm.go (there: concatenating segments in address
// order into one output buffer; here: a sparse map has no natural
// concatenation order, so the image is sized by the maximum used address
// and built by direct indexed writes).

// BuildImage renders mem into a flat byte slice of length
// max(addr)+1, or a zero-length slice if mem is empty, per spec.md
// section 4.6.
func BuildImage(mem map[int]byte) []byte {
	if len(mem) == 0 {
		return nil
	}
	max := 0
	for addr := range mem {
		if addr > max {
			max = addr
		}
	}
	img := make([]byte, max+1)
	for addr, b := range mem {
		img[addr] = b
	}
	return img
}
