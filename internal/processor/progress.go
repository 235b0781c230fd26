package processor

// ProgressReporter receives per-segment progress. It is satisfied by
// *progressbar.ProgressBar.
type ProgressReporter interface {
	Describe(description string)
	Add(num int) error
	Finish() error
}

type nopProgress struct{}

func (nopProgress) Describe(string) {}
func (nopProgress) Add(int) error  { return nil }
func (nopProgress) Finish() error  { return nil }
