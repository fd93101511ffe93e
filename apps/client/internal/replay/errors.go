package replay

import "fmt"

// TapeError locates a problem in a tape.
type TapeError struct {
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *TapeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("tape error(index=%d reason=%s): %s", e.Index, e.Reason, e.Message)
}
