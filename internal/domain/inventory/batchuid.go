package inventory

import (
	"fmt"
	"strings"
)

// batchUIDPrefix marks generated batch identifiers.
const batchUIDPrefix = "BAT-"

// BatchUID builds a deterministic, human-readable batch identifier from a
// product id and a per-product sequence number.
// Format: BAT-<productId>-<sequence zero-padded to 4 digits>.
//
// Uniqueness is not enforced here: the ledger must supply a sequence number
// that is unique per product (see Repository.NextBatchSequence).
func BatchUID(productID, sequence int64) string {
	return fmt.Sprintf("%s%d-%04d", batchUIDPrefix, productID, sequence)
}

// IsBatchUID reports whether code looks like a generated batch identifier.
func IsBatchUID(code string) bool {
	return code != "" && strings.HasPrefix(code, batchUIDPrefix)
}
