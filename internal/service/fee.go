package service

// ApplicationFee computes the platform's retained portion of a donation:
// floor(amount * feeBps / 10000) plus the optional tip. Integer arithmetic
// only; a float here would produce off-by-one-cent ledger mismatches.
func ApplicationFee(amountMinor, feeBps, tipMinor int64) int64 {
	return amountMinor*feeBps/10000 + tipMinor
}
