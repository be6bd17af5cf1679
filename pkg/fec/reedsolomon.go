// Package fec implements the forward error correction codes used
// across the DAB/DAB+ transmission chain: Reed-Solomon over GF(2^8)
// for DAB+ superframes, EDI/PFT fragment protection and enhanced
// packet mode, and the FireCode CRC-16 carried in every DAB+
// superframe header.
//
// Based on ODR-DabMux's lib/ReedSolomon.cpp GF(2^8) table generation.
package fec

import "fmt"

// gfBits and gfMax are the Galois field parameters shared by every RS
// configuration used here: GF(2^8), primitive polynomial 0x11D.
const (
	gfBits = 8
	gfMax  = 255
	gfPoly = 0x11d
)

// ReedSolomon is a systematic RS(n,k) encoder over GF(2^8).
type ReedSolomon struct {
	n, k    int
	nroots  int
	alphaTo [gfMax + 1]int
	indexOf [gfMax + 1]int
	genpoly []int
}

// NewReedSolomon builds an RS(n,k) encoder. n must be <= 255 and
// 0 < k < n.
func NewReedSolomon(n, k int) *ReedSolomon {
	if n > gfMax {
		panic("fec: n must be <= 255")
	}
	if k <= 0 || k >= n {
		panic("fec: k must satisfy 0 < k < n")
	}
	rs := &ReedSolomon{n: n, k: k, nroots: n - k}
	rs.genGFTables()
	rs.genPoly()
	return rs
}

// N returns the codeword length.
func (rs *ReedSolomon) N() int { return rs.n }

// K returns the information length.
func (rs *ReedSolomon) K() int { return rs.k }

// ParitySize returns the number of parity symbols (n-k).
func (rs *ReedSolomon) ParitySize() int { return rs.nroots }

func (rs *ReedSolomon) genGFTables() {
	rs.alphaTo[0] = 1
	for i := 1; i < gfMax; i++ {
		rs.alphaTo[i] = rs.alphaTo[i-1] << 1
		if rs.alphaTo[i]&(1<<gfBits) != 0 {
			rs.alphaTo[i] ^= gfPoly
		}
	}
	rs.alphaTo[gfMax] = 0

	rs.indexOf[0] = gfMax
	for i := 0; i < gfMax; i++ {
		rs.indexOf[rs.alphaTo[i]] = i
	}
}

func (rs *ReedSolomon) modnn(x int) int {
	for x >= gfMax {
		x -= gfMax
		x = (x >> gfBits) + (x & gfMax)
	}
	return x
}

func (rs *ReedSolomon) genPoly() {
	rs.genpoly = make([]int, rs.nroots+1)
	rs.genpoly[0] = 1
	for i := 0; i < rs.nroots; i++ {
		rs.genpoly[i+1] = 1
		for j := i; j > 0; j-- {
			if rs.genpoly[j] != 0 {
				rs.genpoly[j] = rs.genpoly[j-1] ^ rs.alphaTo[rs.modnn(rs.indexOf[rs.genpoly[j]]+i)]
			} else {
				rs.genpoly[j] = rs.genpoly[j-1]
			}
		}
		rs.genpoly[0] = rs.alphaTo[rs.modnn(rs.indexOf[rs.genpoly[0]]+i)]
	}
}

// Encode computes the nroots parity bytes for a k-byte data block.
// It panics if len(data) != k.
func (rs *ReedSolomon) Encode(data []byte) []byte {
	if len(data) != rs.k {
		panic("fec: data length must equal k")
	}
	parity := make([]int, rs.nroots)

	for i := 0; i < rs.k; i++ {
		feedback := rs.indexOf[int(data[i])^parity[0]]
		if feedback != gfMax {
			for j := 0; j < rs.nroots-1; j++ {
				parity[j] = parity[j+1] ^ rs.alphaTo[rs.modnn(feedback+rs.genpoly[rs.nroots-j])]
			}
			parity[rs.nroots-1] = rs.alphaTo[rs.modnn(feedback+rs.genpoly[0])]
		} else {
			for j := 0; j < rs.nroots-1; j++ {
				parity[j] = parity[j+1]
			}
			parity[rs.nroots-1] = 0
		}
	}

	out := make([]byte, rs.nroots)
	for i, v := range parity {
		out[i] = byte(v)
	}
	return out
}

// EncodeBlock returns the full systematic codeword: data followed by
// its parity bytes, length n. data[0:k] of the result always equals
// the input unchanged (systematic property).
func (rs *ReedSolomon) EncodeBlock(data []byte) []byte {
	parity := rs.Encode(data)
	out := make([]byte, 0, rs.n)
	out = append(out, data...)
	out = append(out, parity...)
	return out
}

// gfMul multiplies two GF(2^8) elements using the log/antilog tables.
func (rs *ReedSolomon) gfMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return rs.alphaTo[rs.modnn(rs.indexOf[a]+rs.indexOf[b])]
}

// gfInv returns the multiplicative inverse of a nonzero GF(2^8) element.
func (rs *ReedSolomon) gfInv(a int) int {
	return rs.alphaTo[rs.modnn(gfMax-rs.indexOf[a])]
}

// DecodeErasures reconstructs the k systematic data bytes of a
// systematic RS(n,k) codeword from a received codeword whose erased
// positions are known in advance (spec.md §4.5 P13: "any (F-nroots)
// of F fragments suffice to reconstruct"). erasurePositions holds the
// codeword indices (0-based) that were not actually received; their
// bytes in codeword may be anything (conventionally zero) since they
// are solved for, not trusted.
//
// Erasures-only decoding (locations known, unlike general error
// correction) reduces to a linear system: the generator polynomial's
// nroots roots alpha^0..alpha^(nroots-1) give nroots syndrome
// equations S_m = sum_k e_k * alpha^(m*deg_k) in the len(erasurePositions)
// unknown erasure values e_k, solved by Gaussian elimination over
// GF(2^8) using the first len(erasurePositions) equations (a
// generalized Vandermonde system, invertible since codeword positions
// map to distinct exponents).
func (rs *ReedSolomon) DecodeErasures(codeword []byte, erasurePositions []int) ([]byte, error) {
	if len(codeword) != rs.n {
		return nil, fmt.Errorf("fec: codeword length must equal n (%d), got %d", rs.n, len(codeword))
	}
	ne := len(erasurePositions)
	if ne > rs.nroots {
		return nil, fmt.Errorf("fec: %d erasures exceed correctable %d", ne, rs.nroots)
	}
	if ne == 0 {
		out := make([]byte, rs.k)
		copy(out, codeword[:rs.k])
		return out, nil
	}

	// Codeword position i holds the coefficient of x^(n-1-i)
	// (systematic order: data at high degrees, parity at low degrees,
	// matching Encode/EncodeBlock).
	synd := make([]int, rs.nroots)
	for m := 0; m < rs.nroots; m++ {
		acc := 0
		for i := 0; i < rs.n; i++ {
			if codeword[i] == 0 {
				continue
			}
			deg := rs.n - 1 - i
			exp := rs.modnn(rs.modnn(m*deg) + rs.indexOf[int(codeword[i])])
			acc ^= rs.alphaTo[exp]
		}
		synd[m] = acc
	}

	degs := make([]int, ne)
	for idx, pos := range erasurePositions {
		degs[idx] = rs.n - 1 - pos
	}

	// Augmented ne x (ne+1) matrix: column k is alpha^(m*deg_k) for
	// row m, last column is the syndrome S_m.
	matrix := make([][]int, ne)
	for m := 0; m < ne; m++ {
		row := make([]int, ne+1)
		for k := 0; k < ne; k++ {
			row[k] = rs.alphaTo[rs.modnn(m*degs[k])]
		}
		row[ne] = synd[m]
		matrix[m] = row
	}

	for col := 0; col < ne; col++ {
		pivot := -1
		for r := col; r < ne; r++ {
			if matrix[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("fec: erasure system is singular")
		}
		matrix[col], matrix[pivot] = matrix[pivot], matrix[col]

		invPivot := rs.gfInv(matrix[col][col])
		for c := col; c <= ne; c++ {
			matrix[col][c] = rs.gfMul(matrix[col][c], invPivot)
		}
		for r := 0; r < ne; r++ {
			if r == col || matrix[r][col] == 0 {
				continue
			}
			factor := matrix[r][col]
			for c := col; c <= ne; c++ {
				matrix[r][c] ^= rs.gfMul(factor, matrix[col][c])
			}
		}
	}

	corrected := make([]byte, rs.n)
	copy(corrected, codeword)
	for k := 0; k < ne; k++ {
		corrected[erasurePositions[k]] = byte(matrix[k][ne])
	}

	out := make([]byte, rs.k)
	copy(out, corrected[:rs.k])
	return out, nil
}

// PacketMode204 returns the RS(204,188) encoder used by DAB enhanced
// packet mode (ETSI EN 300 401 Annex F).
func PacketMode204() *ReedSolomon { return NewReedSolomon(204, 188) }

// SuperframeRS120 returns the RS(120,110) encoder used for DAB+
// superframe column protection (ETSI TS 102 563 §6.1).
func SuperframeRS120() *ReedSolomon { return NewReedSolomon(120, 110) }

// PFT returns an RS(n,k) encoder for EDI/PFT fragment protection;
// pkg/edi calls it with a fixed RS(255,207) (ETSI TS 102 821 §7.3).
func PFT(n, k int) *ReedSolomon { return NewReedSolomon(n, k) }
