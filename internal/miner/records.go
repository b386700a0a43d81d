package miner

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/osoleve/namecorpus/internal/model"
)

// recordID derives a deterministic id from the member ids so that
// re-running the builder over the same snapshot reproduces the same
// records byte for byte.
func recordID(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// BuildTriplets assembles (anchor, positive, negative) records from the
// phonetic pair set and a mined negative mapping. Records reference
// entries by id only.
func BuildTriplets(pairs *model.PairSet, negatives map[string][]Negative) []model.Triplet {
	var out []model.Triplet
	anchors := make([]string, 0, len(negatives))
	for id := range negatives {
		anchors = append(anchors, id)
	}
	sort.Strings(anchors)

	for _, anchorID := range anchors {
		positives := pairs.PhoneticPartners(anchorID)
		sort.Strings(positives)
		for _, positiveID := range positives {
			for _, neg := range negatives[anchorID] {
				out = append(out, model.Triplet{
					ID:             recordID(anchorID, positiveID, neg.ID),
					AnchorID:       anchorID,
					PositiveID:     positiveID,
					NegativeID:     neg.ID,
					NegativeSource: neg.Source,
				})
			}
		}
	}
	return out
}

// BuildQuadruplets pairs up distinct phonetic pairs into (a1, a2, b1, b2)
// records. Pairs are combined in sorted order and each pair participates
// with its successor, which keeps output linear in the pair count rather
// than quadratic.
func BuildQuadruplets(pairs *model.PairSet) []model.Quadruplet {
	var phonetic []model.Pair
	for _, p := range pairs.Pairs() {
		if p.Type.IsPhonetic() {
			phonetic = append(phonetic, p)
		}
	}
	sort.Slice(phonetic, func(i, j int) bool {
		if phonetic[i].AnchorID != phonetic[j].AnchorID {
			return phonetic[i].AnchorID < phonetic[j].AnchorID
		}
		return phonetic[i].OtherID < phonetic[j].OtherID
	})

	var out []model.Quadruplet
	for i := 0; i+1 < len(phonetic); i += 2 {
		a, b := phonetic[i], phonetic[i+1]
		if a.AnchorID == b.AnchorID {
			// Same anchor on both sides would leak positives across the
			// quadruplet; skip ahead.
			continue
		}
		out = append(out, model.Quadruplet{
			ID: recordID(a.AnchorID, a.OtherID, b.AnchorID, b.OtherID),
			A1: a.AnchorID,
			A2: a.OtherID,
			B1: b.AnchorID,
			B2: b.OtherID,
		})
	}
	return out
}
