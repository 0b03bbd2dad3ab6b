package engine

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
)

// runBatches выполняет fn для items на пуле партиями по batchSize.
// Между партиями проверяются ctx и лимит времени budget (0 = без лимита);
// при превышении лимита оставшиеся элементы переносятся на следующий тик.
// Результаты возвращаются в порядке items, nil-результаты отбрасываются.
func runBatches[T any, R any](ctx context.Context, pool pond.Pool, items []T, batchSize int, budget time.Duration, fn func(T) *R) ([]*R, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	start := time.Now()
	results := make([]*R, len(items))
	done := 0

	for done < len(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if budget > 0 && done > 0 && time.Since(start) >= budget {
			break
		}

		end := done + batchSize
		if end > len(items) {
			end = len(items)
		}

		tasks := make([]pond.Task, 0, end-done)
		for i := done; i < end; i++ {
			i := i
			tasks = append(tasks, pool.Submit(func() {
				// Каждый воркер пишет только в свой слот
				results[i] = fn(items[i])
			}))
		}
		for _, task := range tasks {
			if err := task.Wait(); err != nil {
				return nil, err
			}
		}
		done = end
	}

	out := make([]*R, 0, done)
	for _, r := range results[:done] {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
