// digest.go computes the table digest stamped into generated files.
// Matching digests mean nothing changed, so a re-run can leave the file
// alone and builds stay reproducible.

package gen

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/veilstr/veilstr/internal/constants"
)

// tableDigest digests the rendered literal declarations and the decoy
// parameters with SHAKE-256 under a fixed domain separator.
func tableDigest(lines []string, decoys int) string {
	h := sha3.NewShake256()

	domain := []byte(constants.DigestDomain)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domain)))
	h.Write(lenBuf)
	h.Write(domain)

	for _, line := range lines {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(line)))
		h.Write(lenBuf)
		h.Write([]byte(line))
	}
	fmt.Fprintf(h, "decoys=%d", decoys)

	out := make([]byte, constants.DigestSize)
	_, _ = h.Read(out) // SHAKE256.Read never fails

	return hex.EncodeToString(out)
}
