package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck fails when the process holds more than limit
// goroutines, a cheap proxy for goroutine leaks.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return fmt.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}
