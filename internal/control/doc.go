// Package control provides the feedback laws that drive actuator set points.
//
//   - [Dosing]: proportional smoothing of the adsorbent dose toward a target
//     derived from the inlet pollutant load
//
// # Usage
//
//	d := control.DefaultDosing()
//	next, adjusting := d.Compute(load, dosage)
//
// Dosing exposes GetParams/SetParam for live tuning.
package control
