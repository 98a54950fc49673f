package indexer

import "fmt"

// IndexError records a file that could not be indexed. It is
// recoverable: the file's symbols are absent from the run, everything
// else proceeds.
type IndexError struct {
	File   string
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %s", e.File, e.Reason)
}
