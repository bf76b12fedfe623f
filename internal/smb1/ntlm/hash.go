// Package ntlm implements the LM/NTLM and NTLMv2 challenge-response
// primitives SMB1 SESSION_SETUP_ANDX authentication needs: hash
// construction, DES key expansion, response calculation, NTLMv2 target-info
// blobs, and constant-time response validation.
//
// Reference: [MS-NLMP] 3.3 (Cryptographic Operations); the classic
// LM/NTLMv1 response construction predates MS-NLMP and follows the widely
// published CIFS/LanMan reference algorithm.
package ntlm

import (
	"crypto/hmac"
	"crypto/md5"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/md4"
)

// magicConstant is the fixed 8-byte plaintext DES-encrypted twice to
// produce the LM hash.
var magicConstant = [8]byte{'K', 'G', 'S', '!', '@', '#', '$', '%'}

// ComputeLMHash derives the 16-byte LAN Manager hash of password: uppercase
// ASCII, pad/truncate to 14 bytes, split into two 7-byte halves, each
// expanded to a DES key that encrypts magicConstant.
func ComputeLMHash(password string) [16]byte {
	upper := strings.ToUpper(password)
	padded := make([]byte, 14)
	copy(padded, []byte(upper))
	if len(upper) > 14 {
		padded = []byte(upper)[:14]
	}

	var half1, half2 [7]byte
	copy(half1[:], padded[0:7])
	copy(half2[:], padded[7:14])

	k1 := expandKey(half1[:])
	k2 := expandKey(half2[:])

	c1 := desEncryptECB(k1, magicConstant)
	c2 := desEncryptECB(k2, magicConstant)

	var out [16]byte
	copy(out[0:8], c1[:])
	copy(out[8:16], c2[:])
	return out
}

// ComputeNTHash derives the 16-byte NTLM hash: MD4 of the UTF-16LE password.
func ComputeNTHash(password string) [16]byte {
	u16 := utf16.Encode([]rune(password))
	buf := make([]byte, len(u16)*2)
	for i, v := range u16 {
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}
	h := md4.New()
	h.Write(buf)
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ComputeNTLMv2Hash derives the NTLMv2 hash: HMAC-MD5 keyed by the NT hash,
// over UPPER(username) || domain, both UTF-16LE.
func ComputeNTLMv2Hash(ntHash [16]byte, username, domain string) [16]byte {
	identity := utf16.Encode([]rune(strings.ToUpper(username) + domain))
	buf := make([]byte, len(identity)*2)
	for i, v := range identity {
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}

	mac := hmac.New(md5.New, ntHash[:])
	mac.Write(buf)
	var out [16]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// lmNtResponse pads a 16-byte hash to 21 bytes, splits it into three 7-byte
// chunks, expands each to a DES key, and encrypts the 8-byte challenge with
// each, concatenating the three 8-byte ciphertexts into a 24-byte response.
// This shape is shared by the classic LM response and NTLM (v1) response.
func lmNtResponse(hash [16]byte, challenge [8]byte) [24]byte {
	var padded [21]byte
	copy(padded[:], hash[:])

	var out [24]byte
	for i := 0; i < 3; i++ {
		var chunk [7]byte
		copy(chunk[:], padded[i*7:i*7+7])
		key := expandKey(chunk[:])
		c := desEncryptECB(key, challenge)
		copy(out[i*8:i*8+8], c[:])
	}
	return out
}

// LMResponse computes the 24-byte classic LM challenge response.
func LMResponse(lmHash [16]byte, serverChallenge [8]byte) [24]byte {
	return lmNtResponse(lmHash, serverChallenge)
}

// NTLMResponse computes the 24-byte classic NTLM (v1) challenge response.
func NTLMResponse(ntHash [16]byte, serverChallenge [8]byte) [24]byte {
	return lmNtResponse(ntHash, serverChallenge)
}

// LMv2Response computes the 24-byte LMv2 response:
// HMAC-MD5(ntlmv2Hash, serverChallenge||clientChallenge) || clientChallenge.
func LMv2Response(ntlmv2Hash [16]byte, serverChallenge, clientChallenge [8]byte) [24]byte {
	mac := hmac.New(md5.New, ntlmv2Hash[:])
	mac.Write(serverChallenge[:])
	mac.Write(clientChallenge[:])

	var out [24]byte
	copy(out[0:16], mac.Sum(nil))
	copy(out[16:24], clientChallenge[:])
	return out
}

// NTLMv2Response computes HMAC-MD5(ntlmv2Hash, serverChallenge||blob) ||
// blob. The caller supplies a pre-built blob (see blob.go).
func NTLMv2Response(ntlmv2Hash [16]byte, serverChallenge [8]byte, blob []byte) []byte {
	mac := hmac.New(md5.New, ntlmv2Hash[:])
	mac.Write(serverChallenge[:])
	mac.Write(blob)
	proof := mac.Sum(nil)

	out := make([]byte, 0, len(proof)+len(blob))
	out = append(out, proof...)
	out = append(out, blob...)
	return out
}

// subtleEqual performs a constant-time byte comparison so response
// validation doesn't leak timing information about where a mismatch
// occurs.
func subtleEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// ValidateLMResponse recomputes the expected LM response and compares in
// constant time. Responses of wrong length are rejected immediately.
func ValidateLMResponse(lmHash [16]byte, serverChallenge [8]byte, response []byte) bool {
	if len(response) != 24 {
		return false
	}
	want := LMResponse(lmHash, serverChallenge)
	return subtleEqual(response, want[:])
}

// ValidateNTLMResponse recomputes the expected classic NTLM response.
func ValidateNTLMResponse(ntHash [16]byte, serverChallenge [8]byte, response []byte) bool {
	if len(response) != 24 {
		return false
	}
	want := NTLMResponse(ntHash, serverChallenge)
	return subtleEqual(response, want[:])
}

// ValidateLMv2Response recomputes the expected LMv2 response.
func ValidateLMv2Response(ntHash [16]byte, username, domain string, serverChallenge [8]byte, response []byte) bool {
	if len(response) != 24 {
		return false
	}
	var clientChallenge [8]byte
	copy(clientChallenge[:], response[16:24])

	v2 := ComputeNTLMv2Hash(ntHash, username, domain)
	want := LMv2Response(v2, serverChallenge, clientChallenge)
	return subtleEqual(response, want[:])
}

// ValidateNTLMv2Response recomputes the expected NTLMv2 response from the
// blob embedded in the client's response (everything after the first 16
// proof bytes) and compares the HMAC-MD5 proof in constant time.
func ValidateNTLMv2Response(ntHash [16]byte, username, domain string, serverChallenge [8]byte, response []byte) bool {
	if len(response) < 16+28 {
		return false
	}
	blob := response[16:]
	v2 := ComputeNTLMv2Hash(ntHash, username, domain)
	want := NTLMv2Response(v2, serverChallenge, blob)
	return subtleEqual(response, want)
}
