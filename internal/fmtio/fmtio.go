// package fmtio provides basic utilities for command input and output
package fmtio

import (
	"fmt"
	"io"
	"os"

	"github.com/dchest/safefile"
)

// ReadInput reads the named file, or all of stdin if fileName is empty.
func ReadInput(stdin io.Reader, fileName string) ([]byte, error) {
	if len(fileName) > 0 {
		return os.ReadFile(fileName)
	}
	return io.ReadAll(stdin)
}

// WithOutput passes a writer to f. If outputFile is non-empty, output
// goes to a temporary file that atomically replaces outputFile once f
// succeeds, otherwise it goes to stdout.
func WithOutput(stdout io.Writer, outputFile string, mode os.FileMode, f func(io.Writer) error) error {
	if len(outputFile) == 0 {
		return f(stdout)
	}
	file, err := safefile.Create(outputFile, mode)
	if err != nil {
		return fmt.Errorf("failed to open file %q: %v", outputFile, err)
	}
	defer file.Close()
	if err := f(file); err != nil {
		return err
	}
	return file.Commit()
}
