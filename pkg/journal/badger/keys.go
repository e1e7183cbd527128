package badger

import "fmt"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so records live under prefixed keys:
//
// Data Type         Prefix   Key Format                       Value Type
// =======================================================================
// Transfer Record   "r:"     r:<accepted-nanos>:<uuid>        TransferRecord (JSON)
//
// The acceptance timestamp is zero-padded to 20 digits so that a plain
// lexicographic prefix scan over "r:" returns records in acceptance order,
// which is the order List must produce. The UUID suffix disambiguates
// records accepted in the same nanosecond.
const recordPrefix = "r:"

// keyRecord builds the key for a transfer record.
func keyRecord(acceptedNanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", recordPrefix, acceptedNanos, id))
}
