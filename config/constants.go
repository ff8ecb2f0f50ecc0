package config

const (
	// DefaultMinimumBalance is the existential deposit
	DefaultMinimumBalance = 10

	// DevSudoSeed names the dev key that is the default sudo account
	DevSudoSeed = "alice"

	// treasuryTag fills the front of the treasury account id, the rest is zero
	treasuryTag = "modlpy/trsry"

	DefaultDataDir     = "."
	DefaultMetricsAddr = ":9100"
	DefaultMempoolSize = 10000
)
