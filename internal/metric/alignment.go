package metric

import "github.com/osoleve/namecorpus/internal/model"

// DistanceWithAlignment computes the edit distance along with the
// operation trace that produced it. Slower than Distance (full matrix plus
// backtrack); used when callers want a DistanceResult with alignment.
func (c Calculator) DistanceWithAlignment(a, b []string) (float64, []model.EditOp) {
	n, m := len(a), len(b)
	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
		dp[i][0] = float64(i) * indelCost
	}
	for j := 0; j <= m; j++ {
		dp[0][j] = float64(j) * indelCost
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			sub := dp[i-1][j-1] + c.SubstitutionCost(a[i-1], b[j-1])
			ins := dp[i][j-1] + indelCost
			del := dp[i-1][j] + indelCost
			dp[i][j] = min3(sub, ins, del)
		}
	}

	// Backtrack, preferring substitution/match so alignments stay stable
	// across runs.
	var rev []model.EditOp
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+c.SubstitutionCost(a[i-1], b[j-1]):
			cost := c.SubstitutionCost(a[i-1], b[j-1])
			op := "sub"
			if cost == 0 {
				op = "match"
			}
			rev = append(rev, model.EditOp{Op: op, A: a[i-1], B: b[j-1], Cost: cost})
			i--
			j--
		case j > 0 && dp[i][j] == dp[i][j-1]+indelCost:
			rev = append(rev, model.EditOp{Op: "ins", B: b[j-1], Cost: indelCost})
			j--
		default:
			rev = append(rev, model.EditOp{Op: "del", A: a[i-1], Cost: indelCost})
			i--
		}
	}
	ops := make([]model.EditOp, 0, len(rev))
	for k := len(rev) - 1; k >= 0; k-- {
		ops = append(ops, rev[k])
	}
	return dp[n][m], ops
}
