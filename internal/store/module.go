package store

import "go.uber.org/fx"

// Module wires the postgres-backed store as the ledger implementation.
var Module = fx.Options(
	fx.Provide(NewGorm),
)
