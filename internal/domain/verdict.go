package domain

type Verdict int

const (
	VerdictIgnore Verdict = iota
	VerdictAllow
	VerdictAllowAndClaim
	VerdictPause
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictAllowAndClaim:
		return "allow_and_claim"
	case VerdictPause:
		return "pause"
	default:
		return "ignore"
	}
}
