package spqrlog

import (
	"io"
	"os"
	"reflect"
)

// GetPointer returns the memory address of the given value as an unsigned integer.
// It does the same thing as fmt.Sprintf("%p", v) without formatting.
func GetPointer(value any) uint {
	ptr := reflect.ValueOf(value).Pointer()
	uintPtr := uintptr(ptr)
	return uint(uintPtr)
}

// newWriter creates a new file writer based on the provided filepath.
// If the filepath is empty, it returns os.Stdout as the writer.
// Otherwise, it opens the file with the given filepath in append mode,
// creating the file if it doesn't exist.
//
// Parameters:
//   - filepath: The path to the file where the data will be written.
//
// Returns:
//   - *os.File: The file where the data will be written.
//   - io.Writer: The writer that writes the data to the file.
//   - error: An error if any error occurs during the file operations.
func newWriter(filepath string) (*os.File, io.Writer, error) {
	if filepath == "" {
		return nil, os.Stdout, nil
	}
	f, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
