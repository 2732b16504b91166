// Package scheduler dispara jobs periódicos del proceso (p.ej. el sweeper de
// tomas perdidas) sobre robfig/cron. Vive lo mismo que el proceso: Start al
// iniciar, Stop al apagar.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"med-reminder/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// JobFunc es el trabajo a ejecutar en cada tick.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	log    logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"component": "scheduler"})

	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registra fn con intervalo fijo ("@every <interval>").
// Un error o panic de fn se loguea y no afecta a los ticks siguientes.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval for %s: %s", name, interval)
	}
	spec := "@every " + interval.String()

	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, fn)
	})
	if err != nil {
		return fmt.Errorf("scheduler: add %s: %w", name, err)
	}
	s.log.Info("scheduled job", map[string]any{"job": name, "every": interval.String()})
	return nil
}

func (s *Scheduler) runJob(name string, fn JobFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("job panicked", map[string]any{"job": name, "panic": fmt.Sprint(rec)})
		}
	}()

	if err := fn(s.ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("job failed", map[string]any{"job": name, "error": err})
	}
}

// Start arranca el ticker en su propia goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop deja de programar ticks, cancela el contexto de los jobs y espera a los
// que estén corriendo hasta que ctx expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapta logger.Logger a cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kv(keysAndValues)
	fields["error"] = err
	l.log.Error("cron: "+msg, fields)
}

func kv(keysAndValues []interface{}) map[string]any {
	out := make(map[string]any, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		k, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		out[k] = keysAndValues[i+1]
	}
	return out
}
