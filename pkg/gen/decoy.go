// decoy.go derives chaff blobs that are emitted alongside real
// ciphertext so the constant pool does not reveal which blobs carry
// literals. The blobs come from a K12 XOF keyed by the build seed, so
// they are deterministic per build and indistinguishable in shape from
// real entries.

package gen

import (
	"encoding/binary"

	"github.com/cloudflare/circl/xof/k12"

	"github.com/veilstr/veilstr/internal/constants"
)

// decoyBlobs expands seed into count chaff blobs of ciphertext-like
// sizes. Same seed and count always yield the same blobs.
func decoyBlobs(seed uint64, count int) [][]byte {
	if count <= 0 {
		return nil
	}

	x := k12.NewDraft10([]byte(constants.DecoyDomain))
	var sbuf [8]byte
	binary.LittleEndian.PutUint64(sbuf[:], seed)
	x.Write(sbuf[:])

	blobs := make([][]byte, count)
	for i := range blobs {
		var szb [1]byte
		x.Read(szb[:])
		// Sizes in [8, 40): the range real short literals occupy.
		size := 8 + int(szb[0]%32)
		b := make([]byte, size)
		x.Read(b)
		blobs[i] = b
	}
	return blobs
}
