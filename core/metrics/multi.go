package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the tick to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(ev TickEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAuctionRound forwards auction outcomes to sinks that record them.
func (m *MultiSink) RecordAuctionRound(ev AuctionRoundEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AuctionRecorder); ok {
			if err := rec.RecordAuctionRound(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDelivery forwards delivery events to sinks that record them.
func (m *MultiSink) RecordDelivery(ev DeliveryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DeliveryRecorder); ok {
			if err := rec.RecordDelivery(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStranding forwards stranding events to sinks that record them.
func (m *MultiSink) RecordStranding(ev StrandingEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StrandingRecorder); ok {
			if err := rec.RecordStranding(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRunCompletion forwards completion events to sinks that record them.
func (m *MultiSink) RecordRunCompletion(ev RunCompletionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunCompletionRecorder); ok {
			if err := rec.RecordRunCompletion(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
