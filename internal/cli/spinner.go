package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const spinnerFrames = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"

var spinnerStyle = lipgloss.NewStyle().Foreground(colorCyan)

// spin animates message on w until the returned stop function is called or
// ctx ends. stop may be called more than once and always leaves a blank line.
func spin(ctx context.Context, w io.Writer, message string) (stop func()) {
	frames := []rune(spinnerFrames)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-quit:
				return
			case <-tick.C:
				fmt.Fprintf(w, "\r%s %s", spinnerStyle.Render(string(frames[i%len(frames)])), StyleDim.Render(message))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
			fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", len(message)+4))
		})
	}
}

// withSpinner runs fn with a spinner on stderr.
func withSpinner(ctx context.Context, message string, fn func(context.Context) error) error {
	stop := spin(ctx, os.Stderr, message)
	defer stop()
	return fn(ctx)
}
