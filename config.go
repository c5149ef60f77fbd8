package astiepg

import "time"

// Default tuning values, used when the corresponding option isn't set.
const (
	DefaultEPGLingerTime     = 2 * time.Hour
	DefaultMaxEventContents  = 16
	UpdateChannelsNone       = 0
	UpdateChannelsRenameOnly = 1
	UpdateChannelsNoRename   = 2
	UpdateChannelsCreate     = 4
)

// Config gathers the tuning knobs the EIT/TDT engine consumes. It is built
// once at construction time and never mutated afterwards; EitProcessor and
// TdtProcessor each keep their own copy.
type Config struct {
	// EPGLanguages orders the ISO 639 language codes the descriptor
	// interpretation pipeline prefers when several short/extended event
	// descriptors carry the same information in different languages.
	EPGLanguages []string

	// UpdateChannels is the Premiere linkage policy level (0-4, see the
	// Linkage row of the descriptor dispatch table).
	UpdateChannels int

	// SetSystemTime gates whether TdtProcessor.Process acts on a section at
	// all; when it is false every TDT section is dropped.
	SetSystemTime bool

	// TimeSource and TimeTransponder restrict which origin/transponder
	// TDT sections are allowed to discipline the clock.
	TimeSource      uint8
	TimeTransponder uint16

	// EPGLingerTime is how long after its end time an event is still kept
	// on the schedule instead of being dropped as outdated.
	EPGLingerTime time.Duration

	// MaxEventContents bounds how many (nibble1<<4|nibble2) content bytes
	// are packed per event.
	MaxEventContents int
}

// NewConfig returns a Config with the documented defaults applied, then
// customized by opts.
func NewConfig(opts ...func(*Config)) *Config {
	c := &Config{
		EPGLingerTime:    DefaultEPGLingerTime,
		MaxEventContents: DefaultMaxEventContents,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfigOptEPGLanguages sets the language preference ordering.
func ConfigOptEPGLanguages(languages ...string) func(*Config) {
	return func(c *Config) {
		c.EPGLanguages = languages
	}
}

// ConfigOptUpdateChannels sets the Premiere linkage policy level.
func ConfigOptUpdateChannels(level int) func(*Config) {
	return func(c *Config) {
		c.UpdateChannels = level
	}
}

// ConfigOptSetSystemTime enables TDT-driven clock discipline, restricted
// to the given origin/transponder.
func ConfigOptSetSystemTime(source uint8, transponder uint16) func(*Config) {
	return func(c *Config) {
		c.SetSystemTime = true
		c.TimeSource = source
		c.TimeTransponder = transponder
	}
}

// ConfigOptEPGLingerTime overrides DefaultEPGLingerTime.
func ConfigOptEPGLingerTime(d time.Duration) func(*Config) {
	return func(c *Config) {
		c.EPGLingerTime = d
	}
}

// ConfigOptMaxEventContents overrides DefaultMaxEventContents.
func ConfigOptMaxEventContents(n int) func(*Config) {
	return func(c *Config) {
		c.MaxEventContents = n
	}
}
