// Package analysis characterizes recorded or simulated runs of the line.
//
//   - [Describe]: mean, spread and range of a column
//   - [ControllerResponse]: settling behaviour of the auto-dosing loop
//   - [PowerSpectrum] and [DominantPeriod]: periodicity of a sensor signal
//   - [Sweep]: steady-state dose response across a range of pollutant loads
//
// # Steady State
//
// Sweep runs the tick model from the same initial state for every load,
// discards a transient and averages what follows:
//
//	pts := analysis.Sweep(process.DefaultModel(), process.Default(), 0, 100, 11, 60, 30, process.Silent)
//	for _, p := range pts {
//	    fmt.Println(p.Load, p.Turbidity)
//	}
package analysis
