// Package core provides the shared vocabulary for a hoopsdb load run.
//
// It holds no I/O. The extractor, loader, store and orchestrator packages all
// report failures through this package so the command line can print one
// message per failure kind and exit with a distinguishable status.
//
// # Error Kinds
//
// Failures are wrapped in [*Error] with a [Kind]:
//
//	return core.Errorf(core.KindExtraction, "open archive", "%s: %w", path, err)
//
// [KindOf] and [ExitCode] recover the classification from any wrapped error,
// and [MapError] turns it into a [UserMessage] with a support code.
//
// # Run States
//
// A run walks a fixed path of [State] values:
//
//	idle -> validating_inputs -> extracting -> cleaning_up -> transforming
//	     -> initializing -> loading -> done
//
// Any non-terminal state may move to failed. [Machine] enforces the order.
package core
