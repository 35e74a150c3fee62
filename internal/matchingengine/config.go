package matchingengine

import (
	"github.com/lattice-exchange/matchingengine/pkg/decimal"
)

// Config is the matching engine's construction-time configuration (§6).
// Every field is immutable once the engine is built, except where noted.
type Config struct {
	EnablePersistence       bool            `json:"enable_persistence" yaml:"enable_persistence"`
	SnapshotIntervalSeconds int             `json:"snapshot_interval_seconds" yaml:"snapshot_interval_seconds"`
	EnableFees              bool            `json:"enable_fees" yaml:"enable_fees"`
	MakerFeeRate            decimal.Decimal `json:"maker_fee_rate" yaml:"maker_fee_rate"`
	TakerFeeRate            decimal.Decimal `json:"taker_fee_rate" yaml:"taker_fee_rate"`
	MaxSubscribersPerSymbol int             `json:"max_subscribers_per_symbol" yaml:"max_subscribers_per_symbol"`
	DepthLevelsDefault      int             `json:"depth_levels_default" yaml:"depth_levels_default"`

	// CommandBufferSize bounds the admission command channel (§5).
	CommandBufferSize int `json:"command_buffer_size" yaml:"command_buffer_size"`
}

// DefaultConfig returns the engine configuration defaults named in §6.
func DefaultConfig() Config {
	return Config{
		EnablePersistence:       false,
		SnapshotIntervalSeconds: 60,
		EnableFees:              false,
		MakerFeeRate:            decimal.Zero,
		TakerFeeRate:            decimal.Zero,
		MaxSubscribersPerSymbol: 1000,
		DepthLevelsDefault:      10,
		CommandBufferSize:       4096,
	}
}
