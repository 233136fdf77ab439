package helper

import "fmt"

// NewError wraps err with an operation label, preserving err for errors.Is/
// errors.As. Repository and service methods use it so logs and error chains
// carry a consistent "op: cause" shape; the upsert methods return row-scan
// errors unwrapped.
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
