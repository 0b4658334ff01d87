// Package process models the magnetic flocculation line as a small state
// vector and the pure transition functions that advance it.
//
// A [State] is a value. [Tick] derives the sensor readings for one second of
// operation, [ApplyUserEdit] applies an operator slider change and
// [ToggleAutoDosing] flips the dosing mode:
//
//	s := process.Default()
//	s = process.Tick(s, rand.New(rand.NewSource(1)))
//	s, _ = process.ApplyUserEdit(s, process.FieldDosage, 1.5) // now manual
//
// Every bounded field is clamped after each transition, so no reachable
// state leaves its documented domain.
package process
