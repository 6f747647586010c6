// Package dynamo provides the core contracts shared by the simulation engine.
//
// The package defines the flat state vector and the interfaces that tie a
// physical system to a time integrator:
//
//   - [State]: flat vector of generalized coordinates (positions and velocities)
//   - [System]: stateful system that installs a state and evaluates dX/dt at it
//   - [Integrator]: advances a [System] by one fixed time step
//   - [Metric], [Observer]: hooks called once per committed step
//
// # Example
//
//	sys := fem.NewSystem()
//	sys.AddObject(obj)
//	sys.Init()
//	integ := integrators.NewMidpoint()
//	_ = integ.Step(sys, 3e-4)
//
// # Thread Safety
//
// Systems and integrators are NOT thread-safe. A System is advanced from a
// single goroutine; nothing in the engine locks.
package dynamo
