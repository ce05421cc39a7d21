package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mermaidviz/pkg/domain"
)

// LogHooks logs every conversion at Debug on start and Info/Error on completion.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConvertStart: func(ctx context.Context, e *domain.ConvertEvent) {
			logger.Debug("convert_start", "key", e.Key, "input_size", e.InputSize)
		},
		OnConvertDone: func(ctx context.Context, e *domain.ConvertEvent) {
			if e.Err != nil {
				logger.Error("convert_done",
					"key", e.Key,
					"duration", e.Duration,
					"outcome", Outcome(e.Err),
					"err", e.Err,
				)
				return
			}
			logger.Info("convert_done",
				"key", e.Key,
				"kind", e.Kind,
				"cache_hit", e.CacheHit,
				"output_size", e.OutputSize,
				"duration", e.Duration,
			)
		},
	}
}

// Combine fans each callback out to every non-nil callback of hooks, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var starts, dones []func(context.Context, *domain.ConvertEvent)
	for _, h := range hooks {
		if h.OnConvertStart != nil {
			starts = append(starts, h.OnConvertStart)
		}
		if h.OnConvertDone != nil {
			dones = append(dones, h.OnConvertDone)
		}
	}
	return domain.LifecycleHooks{
		OnConvertStart: fanOut(starts),
		OnConvertDone:  fanOut(dones),
	}
}

func fanOut(fns []func(context.Context, *domain.ConvertEvent)) func(context.Context, *domain.ConvertEvent) {
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *domain.ConvertEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
