package ntlm

import "crypto/des"

// expandKey turns a 7-byte (56-bit) key fragment into the 8-byte odd-parity
// DES key the algorithm expects. Every output byte's low bit is forced to
// odd parity; bits 1-7 are lifted from the 56-bit input stream.
//
// This bit layout is part of the MS-NLMP-compatible NTLM reference
// algorithm (and predates it, going back to LAN Manager); it must be
// reproduced bit-for-bit; see the LM/NTLM hash test vectors in
// ntlm_test.go, not left to a "close enough" derivation.
func expandKey(in7 []byte) [8]byte {
	var out [8]byte
	out[0] = in7[0] >> 1
	out[1] = (in7[0]&0x01)<<6 | in7[1]>>2
	out[2] = (in7[1]&0x03)<<5 | in7[2]>>3
	out[3] = (in7[2]&0x07)<<4 | in7[3]>>4
	out[4] = (in7[3]&0x0F)<<3 | in7[4]>>5
	out[5] = (in7[4]&0x1F)<<2 | in7[5]>>6
	out[6] = (in7[5]&0x3F)<<1 | in7[6]>>7
	out[7] = in7[6] & 0x7F

	for i := range out {
		out[i] = (out[i] << 1) & 0xFE
		out[i] |= oddParity(out[i])
	}
	return out
}

// oddParity returns the parity bit (0 or 1) that, placed in bit 0 of b,
// makes the byte's set-bit count odd.
func oddParity(b byte) byte {
	count := 0
	for i := 1; i < 8; i++ {
		if b&(1<<uint(i)) != 0 {
			count++
		}
	}
	if count%2 == 0 {
		return 1
	}
	return 0
}

// desEncryptECB DES-ECB-encrypts one 8-byte block with an 8-byte
// (already parity-adjusted) key.
func desEncryptECB(key, block [8]byte) [8]byte {
	c, err := des.NewCipher(key[:])
	if err != nil {
		// A DES key is always exactly 8 bytes; NewCipher only errors on
		// wrong-length input, which cannot happen here.
		panic(err)
	}
	var out [8]byte
	c.Encrypt(out[:], block[:])
	return out
}
