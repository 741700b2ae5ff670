package cli

import (
	"fmt"
	"io"
	"time"
)

const progressInterval = 500 * time.Millisecond

// runWithProgress runs work in a background goroutine and prints a dot to
// out for every interval it is still running. Work cannot be cancelled once
// started.
func runWithProgress(out io.Writer, label string, interval time.Duration, work func() error) error {
	done := make(chan error, 1)
	start := time.Now()
	go func() {
		done <- work()
	}()

	fmt.Fprint(out, label)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				fmt.Fprintf(out, " failed (%s)\n", elapsed)
			} else {
				fmt.Fprintf(out, " done (%s)\n", elapsed)
			}
			return err
		case <-ticker.C:
			fmt.Fprint(out, ".")
		}
	}
}
