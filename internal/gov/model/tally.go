package model

// Tally is a proposal's coin-weighted vote outcome: whole-vote counts and
// the summed coin amounts they were derived from.
type Tally struct {
	Yes     int64
	No      int64
	Abstain int64

	CYes     int64
	CNo      int64
	CAbstain int64
}

// Add accumulates other into t, elementwise.
func (t *Tally) Add(other Tally) {
	t.Yes += other.Yes
	t.No += other.No
	t.Abstain += other.Abstain
	t.CYes += other.CYes
	t.CNo += other.CNo
	t.CAbstain += other.CAbstain
}
