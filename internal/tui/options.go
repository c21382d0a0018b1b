package tui

import "github.com/hylla/takt/internal/app"

type PaneConfig struct {
	ShowDayBars   bool
	ShowTrend     bool
	ShowSpecTable bool
}

type Option func(*Model)

func DefaultPaneConfig() PaneConfig {
	return PaneConfig{
		ShowDayBars:   true,
		ShowTrend:     true,
		ShowSpecTable: true,
	}
}

func WithPaneConfig(cfg PaneConfig) Option {
	return func(m *Model) {
		m.panes = cfg
	}
}

func WithClock(clock app.Clock) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithWindowWeeks(weeks int) Option {
	return func(m *Model) {
		if weeks > 0 {
			m.windowWeeks = weeks
		}
	}
}
