package observe

// Instruments bundles the tracer, metrics recorder and logger a fragment
// engine reports through.
//
// Contract:
//   - Concurrency: all members are safe for concurrent use.
//   - Ownership: Instruments is a value; copies share the underlying providers.
type Instruments struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// NoopInstruments returns Instruments that record nothing.
func NoopInstruments() Instruments {
	return Instruments{
		Tracer:  newNoopTracer(),
		Metrics: noopMetrics{},
		Logger:  &noopLogger{},
	}
}

// InstrumentsFromObserver builds Instruments from an Observer.
func InstrumentsFromObserver(obs Observer) (Instruments, error) {
	if obs == nil {
		return Instruments{}, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return Instruments{}, err
	}

	return Instruments{
		Tracer:  NewTracer(obs.Tracer()),
		Metrics: metrics,
		Logger:  obs.Logger(),
	}, nil
}

// WithDefaults fills nil members with no-op implementations.
func (in Instruments) WithDefaults() Instruments {
	noop := NoopInstruments()
	if in.Tracer == nil {
		in.Tracer = noop.Tracer
	}
	if in.Metrics == nil {
		in.Metrics = noop.Metrics
	}
	if in.Logger == nil {
		in.Logger = noop.Logger
	}
	return in
}
