package chain

import (
	"fmt"
	"strings"
)

// Function selectors for the read-only calls this service performs.
// Keccak-256 of the canonical signature, first 4 bytes.
const (
	SelectorDecimals        = "0x313ce567" // decimals()
	SelectorLatestAnswer    = "0x50d25bcd" // latestAnswer()
	SelectorTotalSupply     = "0x18160ddd" // totalSupply()
	SelectorRewardRate      = "0x7b0a47ee" // rewardRate()
	SelectorPeriodFinish    = "0xebe2b12b" // periodFinish()
	SelectorRewardsDuration = "0x386a9525" // rewardsDuration()
	SelectorGetAssetPrice   = "0xb3596f07" // getAssetPrice(address)
)

// EncodeCall builds calldata from a selector and address arguments, each
// left-padded to a 32-byte word.
func EncodeCall(selector string, addressArgs ...string) string {
	var b strings.Builder
	b.WriteString(selector)
	for _, arg := range addressArgs {
		addr := strings.ToLower(strings.TrimPrefix(arg, "0x"))
		b.WriteString(fmt.Sprintf("%064s", addr))
	}
	return b.String()
}
