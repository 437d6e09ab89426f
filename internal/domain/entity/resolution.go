package entity

type BlockReason string

const (
	ReasonMuted         BlockReason = "MUTED"
	ReasonOutsideWindow BlockReason = "OUTSIDE_WINDOW"
	ReasonTypeDisabled  BlockReason = "TYPE_DISABLED"
)

// Resolution is the outcome of merging a user's settings and type preference.
type Resolution struct {
	Channels []Channel
	Blocked  bool
	Reason   BlockReason
}
