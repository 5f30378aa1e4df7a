package line

import "fmt"

// BestEffort reports the outcome of a call whose failure the caller
// deliberately ignores. It is returned instead of an error so call sites
// discard it explicitly with `_ =`.
type BestEffort struct {
	Status int
	Body   string
	Err    error
}

// OK reports whether the call succeeded with a 2xx status.
func (b BestEffort) OK() bool {
	return b.Err == nil && b.Status >= 200 && b.Status < 300
}

func (b BestEffort) String() string {
	if b.Err != nil {
		return fmt.Sprintf("status=%d error=%v", b.Status, b.Err)
	}
	return fmt.Sprintf("status=%d body=%s", b.Status, b.Body)
}
