// ABOUTME: ID and invite code generation
// ABOUTME: Short hex ids for URLs, unambiguous alphabet for invite codes

package server

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// inviteAlphabet avoids ambiguous characters (0/O, 1/I/L).
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

// genID returns a short random id, optionally prefixed like "s_6f3a...".
func genID(prefix string) string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// genInviteCode returns a human-friendly 8-character invite code.
func genInviteCode() string {
	out := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform is broken.
			panic(err)
		}
		out[i] = inviteAlphabet[n.Int64()]
	}
	return string(out)
}
