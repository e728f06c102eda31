package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"incentive-hub/internal/domain"
)

// ComputeIncentiveID computes a deterministic incentive fingerprint using SHA256.
// Formula: SHA256(chain_id|sorted lowercased involved addresses|reward identity)
// where reward identity is the reward token address for TOKEN incentives and
// the point program name for POINT variants.
// Returns hex-encoded hash (64 characters).
//
// Two raw incentives that hash to the same ID describe the same opportunity
// observed from different providers or time windows.
func ComputeIncentiveID(chainID int64, involvedAddresses []string, rewardIdentity string) string {
	addrs := make([]string, len(involvedAddresses))
	for i, a := range involvedAddresses {
		addrs[i] = strings.ToLower(a)
	}
	sort.Strings(addrs)

	data := fmt.Sprintf("%d|%s|%s", chainID, strings.Join(addrs, ","), rewardIdentity)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// AssignID computes and stamps the fingerprint on an incentive.
func AssignID(inc *domain.Incentive) {
	addrs := make([]string, len(inc.InvolvedTokens))
	for i, tok := range inc.InvolvedTokens {
		addrs[i] = tok.Address
	}
	inc.ID = ComputeIncentiveID(inc.ChainID, addrs, inc.RewardIdentity())
}
