package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/newsroom/core"
)

// Key prefixes for different data types
const (
	batchPrefix     = "bat:"
	batchTimePrefix = "batt:"
	articlePrefix   = "art:"
	vectorPrefix    = "vec:"
	batchIDSeq      = "batseq"
)

// appendUint64 writes v in BigEndian order so lexicographic sort works correctly.
func appendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// makeBatchKey generates a key for a batch by ID.
// Format: prefix:id
func makeBatchKey(id core.ID) []byte {
	return appendUint64([]byte(batchPrefix), uint64(id))
}

// makeBatchTimeKey generates a composite key for the fetch time index.
// Format: prefix:timestamp:id
func makeBatchTimeKey(fetchedAt time.Time, id core.ID) []byte {
	buf := appendUint64([]byte(batchTimePrefix), uint64(fetchedAt.UnixMicro()))
	return appendUint64(buf, uint64(id))
}

// makePartialBatchTimeKey generates a partial key for time range scans.
// Format: prefix:timestamp
func makePartialBatchTimeKey(fetchedAt time.Time) []byte {
	return appendUint64([]byte(batchTimePrefix), uint64(fetchedAt.UnixMicro()))
}

// makeArticlePrefix generates the key prefix shared by every article of a batch.
// Format: prefix:batchID
func makeArticlePrefix(batchID core.ID) []byte {
	return appendUint64([]byte(articlePrefix), uint64(batchID))
}

// makeArticleKey generates a key for the position-th article of a batch.
// Format: prefix:batchID:position
func makeArticleKey(batchID core.ID, position int) []byte {
	buf := makeArticlePrefix(batchID)
	return binary.BigEndian.AppendUint32(buf, uint32(position))
}

// makeVectorPrefix generates the key prefix for all vectors of a model.
// The model name is length-prefixed so no model's prefix is a prefix of
// another's, e.g. "m" and "m:latest".
// Format: prefix:len(model):model
func makeVectorPrefix(model string) []byte {
	buf := make([]byte, 0, len(vectorPrefix)+4+len(model))
	buf = append(buf, vectorPrefix...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(model)))
	return append(buf, model...)
}

// makeVectorKey generates a key for a cached vector.
// Format: prefix:len(model):model:id
func makeVectorKey(model string, id core.ID) []byte {
	return appendUint64(makeVectorPrefix(model), uint64(id))
}

// batchIDFromTimeKey extracts the batch ID from a time index key.
func batchIDFromTimeKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}
