package xdcopy

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a content hash over the set's plans: two sets built from the
// same (possibly reordered, possibly duplicated) plans hash identically,
// since NewParallelCopySet/Add already dedup and each plan's digest is
// combined by addition, which does not depend on plan order. Step order
// within a plan does change the hash.
func (s ParallelCopySet) Hash() uint64 {
	var combined uint64
	for _, plan := range s.plans {
		digest := xxhash.New()
		plan.hashInto(digest)
		combined += digest.Sum64()
	}
	return combined
}

func (p CopyPlan) hashInto(digest *xxhash.Digest) {
	var buf [8]byte
	for _, step := range p {
		step.hashInto(digest, &buf)
	}
}

func (s CopySpec) hashInto(digest *xxhash.Digest, buf *[8]byte) {
	writeInt64(digest, buf, int64(s.SourceDevice))
	s.SourceLayout.hashInto(digest, buf)
	writeInt64(digest, buf, int64(s.TargetDevice))
	s.TargetLayout.hashInto(digest, buf)
	writeInt64(digest, buf, int64(s.Properties))
}

func (l DataLayout) hashInto(digest *xxhash.Digest, buf *[8]byte) {
	if l.base.staged {
		writeInt64(digest, buf, 1)
		writeInt64(digest, buf, boolToInt64(l.base.staging.OnHost))
		writeInt64(digest, buf, int64(l.base.staging.Device))
		writeInt64(digest, buf, int64(l.base.staging.Index))
	} else {
		writeInt64(digest, buf, 0)
		writeInt64(digest, buf, int64(l.base.addr))
	}
	writeInt64(digest, buf, l.Offset)
	writeInt64(digest, buf, l.FragmentLength)
	writeInt64(digest, buf, l.FragmentCount)
	writeInt64(digest, buf, l.Stride)
}

func writeInt64(digest *xxhash.Digest, buf *[8]byte, v int64) {
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	digest.Write(buf[:])
}
